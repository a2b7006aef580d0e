package dictionary

import "fmt"

// Tag identifies a data element. The group number occupies the most significant
// 16 bits and the element number the least significant 16 bits, so numeric ordering
// of Tags equals (group, element) lexicographic ordering.
type Tag uint32

// NewTag returns the Tag for (`group`,`element`)
func NewTag(group, element uint16) Tag {
	return Tag(uint32(group)<<16 | uint32(element))
}

// Group returns the group number
func (t Tag) Group() uint16 {
	return uint16(t >> 16)
}

// Element returns the element number
func (t Tag) Element() uint16 {
	return uint16(t)
}

// IsPrivate returns whether the tag belongs to an odd (private) group
func (t Tag) IsPrivate() bool {
	return t.Group()%2 == 1
}

// IsGroupLength returns whether the tag is a (gggg,0000) group length element
func (t Tag) IsGroupLength() bool {
	return t.Element() == 0x0000
}

// IsFileMeta returns whether the tag belongs to the file meta group (0002)
func (t Tag) IsFileMeta() bool {
	return t.Group() == 0x0002
}

func (t Tag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.Group(), t.Element())
}

// Label renders the tag as "GGGG,EEEE", used where a name cannot be resolved.
func (t Tag) Label() string {
	return fmt.Sprintf("%04X,%04X", t.Group(), t.Element())
}

// Well known tags referenced by the parser, writer and pixel layers.
const (
	FileMetaInformationGroupLength Tag = 0x00020000
	FileMetaInformationVersion     Tag = 0x00020001
	MediaStorageSOPClassUID        Tag = 0x00020002
	MediaStorageSOPInstanceUID     Tag = 0x00020003
	TransferSyntaxUID              Tag = 0x00020010
	ImplementationClassUID         Tag = 0x00020012
	ImplementationVersionName      Tag = 0x00020013

	SpecificCharacterSet Tag = 0x00080005
	SOPClassUID          Tag = 0x00080016
	SOPInstanceUID       Tag = 0x00080018
	Modality             Tag = 0x00080060

	PatientName Tag = 0x00100010
	PatientID   Tag = 0x00100020

	SliceThickness       Tag = 0x00180050
	SpacingBetweenSlices Tag = 0x00180088

	ImagePosition        Tag = 0x00200030
	ImagePositionPatient Tag = 0x00200032

	SamplesPerPixel           Tag = 0x00280002
	PhotometricInterpretation Tag = 0x00280004
	PlanarConfiguration       Tag = 0x00280006
	NumberOfFrames            Tag = 0x00280008
	Rows                      Tag = 0x00280010
	Columns                   Tag = 0x00280011
	PixelSpacing              Tag = 0x00280030
	BitsAllocated             Tag = 0x00280100
	BitsStored                Tag = 0x00280101
	HighBit                   Tag = 0x00280102
	PixelRepresentation       Tag = 0x00280103
	ImageLocation             Tag = 0x00280200
	WindowCenter              Tag = 0x00281050
	WindowWidth               Tag = 0x00281051
	RescaleIntercept          Tag = 0x00281052
	RescaleSlope              Tag = 0x00281053

	PixelData Tag = 0x7FE00010

	Item                     Tag = 0xFFFEE000
	ItemDelimitationItem     Tag = 0xFFFEE00D
	SequenceDelimitationItem Tag = 0xFFFEE0DD
)
