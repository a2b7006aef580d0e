package dictionary

// UIDEntry represents a well-known UID: a transfer syntax or SOP class
type UIDEntry struct {
	UID       string
	Type      string
	NameHuman string
}

// UID types
const (
	TransferSyntaxType = "Transfer Syntax"
	SOPClassType       = "SOP Class"
)

// Transfer syntaxes handled natively by the parser and writer
const (
	ImplicitVRLittleEndian         = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian         = "1.2.840.10008.1.2.1"
	DeflatedExplicitVRLittleEndian = "1.2.840.10008.1.2.1.99"
	ExplicitVRBigEndian            = "1.2.840.10008.1.2.2"
)

// SecondaryCaptureImageStorage is the SOP class used when a document carries none
const SecondaryCaptureImageStorage = "1.2.840.10008.5.1.4.1.1.7"

var uidDictionary = map[string]UIDEntry{
	ImplicitVRLittleEndian:         {UID: ImplicitVRLittleEndian, Type: TransferSyntaxType, NameHuman: "Implicit VR Little Endian"},
	ExplicitVRLittleEndian:         {UID: ExplicitVRLittleEndian, Type: TransferSyntaxType, NameHuman: "Explicit VR Little Endian"},
	DeflatedExplicitVRLittleEndian: {UID: DeflatedExplicitVRLittleEndian, Type: TransferSyntaxType, NameHuman: "Deflated Explicit VR Little Endian"},
	ExplicitVRBigEndian:            {UID: ExplicitVRBigEndian, Type: TransferSyntaxType, NameHuman: "Explicit VR Big Endian (Retired)"},
	"1.2.840.10008.1.2.4.50":       {UID: "1.2.840.10008.1.2.4.50", Type: TransferSyntaxType, NameHuman: "JPEG Baseline (Process 1)"},
	"1.2.840.10008.1.2.4.51":       {UID: "1.2.840.10008.1.2.4.51", Type: TransferSyntaxType, NameHuman: "JPEG Extended (Process 2 & 4)"},
	"1.2.840.10008.1.2.4.57":       {UID: "1.2.840.10008.1.2.4.57", Type: TransferSyntaxType, NameHuman: "JPEG Lossless, Non-Hierarchical (Process 14)"},
	"1.2.840.10008.1.2.4.70":       {UID: "1.2.840.10008.1.2.4.70", Type: TransferSyntaxType, NameHuman: "JPEG Lossless, Non-Hierarchical, First-Order Prediction"},
	"1.2.840.10008.1.2.4.80":       {UID: "1.2.840.10008.1.2.4.80", Type: TransferSyntaxType, NameHuman: "JPEG-LS Lossless Image Compression"},
	"1.2.840.10008.1.2.4.81":       {UID: "1.2.840.10008.1.2.4.81", Type: TransferSyntaxType, NameHuman: "JPEG-LS Lossy (Near-Lossless) Image Compression"},
	"1.2.840.10008.1.2.4.90":       {UID: "1.2.840.10008.1.2.4.90", Type: TransferSyntaxType, NameHuman: "JPEG 2000 Image Compression (Lossless Only)"},
	"1.2.840.10008.1.2.4.91":       {UID: "1.2.840.10008.1.2.4.91", Type: TransferSyntaxType, NameHuman: "JPEG 2000 Image Compression"},
	"1.2.840.10008.1.2.5":          {UID: "1.2.840.10008.1.2.5", Type: TransferSyntaxType, NameHuman: "RLE Lossless"},

	"1.2.840.10008.1.1":             {UID: "1.2.840.10008.1.1", Type: SOPClassType, NameHuman: "Verification SOP Class"},
	"1.2.840.10008.5.1.4.1.1.1":     {UID: "1.2.840.10008.5.1.4.1.1.1", Type: SOPClassType, NameHuman: "Computed Radiography Image Storage"},
	"1.2.840.10008.5.1.4.1.1.1.1":   {UID: "1.2.840.10008.5.1.4.1.1.1.1", Type: SOPClassType, NameHuman: "Digital X-Ray Image Storage - For Presentation"},
	"1.2.840.10008.5.1.4.1.1.2":     {UID: "1.2.840.10008.5.1.4.1.1.2", Type: SOPClassType, NameHuman: "CT Image Storage"},
	"1.2.840.10008.5.1.4.1.1.2.1":   {UID: "1.2.840.10008.5.1.4.1.1.2.1", Type: SOPClassType, NameHuman: "Enhanced CT Image Storage"},
	"1.2.840.10008.5.1.4.1.1.4":     {UID: "1.2.840.10008.5.1.4.1.1.4", Type: SOPClassType, NameHuman: "MR Image Storage"},
	"1.2.840.10008.5.1.4.1.1.4.1":   {UID: "1.2.840.10008.5.1.4.1.1.4.1", Type: SOPClassType, NameHuman: "Enhanced MR Image Storage"},
	"1.2.840.10008.5.1.4.1.1.6.1":   {UID: "1.2.840.10008.5.1.4.1.1.6.1", Type: SOPClassType, NameHuman: "Ultrasound Image Storage"},
	SecondaryCaptureImageStorage:    {UID: SecondaryCaptureImageStorage, Type: SOPClassType, NameHuman: "Secondary Capture Image Storage"},
	"1.2.840.10008.5.1.4.1.1.20":    {UID: "1.2.840.10008.5.1.4.1.1.20", Type: SOPClassType, NameHuman: "Nuclear Medicine Image Storage"},
	"1.2.840.10008.5.1.4.1.1.128":   {UID: "1.2.840.10008.5.1.4.1.1.128", Type: SOPClassType, NameHuman: "Positron Emission Tomography Image Storage"},
	"1.2.840.10008.5.1.4.1.1.481.1": {UID: "1.2.840.10008.5.1.4.1.1.481.1", Type: SOPClassType, NameHuman: "RT Image Storage"},
}

// LookupUID searches for the entry of `uid`
func LookupUID(uid string) (UIDEntry, bool) {
	e, found := uidDictionary[uid]
	return e, found
}
