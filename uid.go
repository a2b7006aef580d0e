package dcmio

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// maxUIDLength is the longest a UI value may be
const maxUIDLength = 64

// GetImplementationUID generates a DICOM implementation UID from the configured root UID and version.
// NOTE: Implementation UIDs conform to the format:
// <<ROOT>>.<<VERSION>>.<<InstanceType>>
// Where ROOT = Config.RootUID, VERSION = Config.Version, InstanceType= (1 for synthetic data, 0 for others)
func GetImplementationUID(synthetic bool) string {
	cfg := GetConfig()
	instanceType := "0"
	if synthetic {
		instanceType = "1"
	}
	return fmt.Sprintf("%s%s.%s", cfg.RootUID, cfg.Version, instanceType)
}

// GetImplementationVersionName returns the value written to ImplementationVersionName (0002,0013)
func GetImplementationVersionName() string {
	return "DCMIO_" + GetConfig().Version
}

// NewRandInstanceUID generates a DICOM random instance UID from the configured root UID
func NewRandInstanceUID() (string, error) {
	prefix := GetConfig().RootUID
	max := big.Int{}
	max.SetString(strings.Repeat("9", maxUIDLength-len(prefix)), 10)
	randval, err := rand.Int(rand.Reader, &max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", prefix, randval), nil
}
