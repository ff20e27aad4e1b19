package orchestrator

import (
	"crypto/md5" //nolint:gosec // identifying the compiler binary, not a security primitive
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/ourovoros-io/dyno/internal/errstack"
)

// binaryMD5 computes the uppercase hex md5 digest of the compiler binary
// at path, used to disambiguate archived runs built with identically
// versioned but differently patched compilers.
func binaryMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errstack.Wrapf(err, "opening %q for hashing", path)
	}
	defer f.Close() //nolint:errcheck

	h := md5.New() //nolint:gosec
	if _, err := io.Copy(h, f); err != nil {
		return "", errstack.Wrapf(err, "hashing %q", path)
	}
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil))), nil
}
