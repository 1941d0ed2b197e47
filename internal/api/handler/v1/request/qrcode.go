package request

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

// Codes use the printable alphabet only; the lookahead rejects the glyphs
// left out of it (0, 1, I, L, O).
var qrCodePattern = fmt.Sprintf(`^(?!.*[01ILO])[A-Z0-9]{%d,%d}$`, domain.MinQRCodeLength, domain.MaxQRCodeLength)

var (
	qrCodeExp = regexp2.MustCompile(qrCodePattern, regexp2.None)

	errInvalidQRCode = fmt.Errorf("code must be %d to %d characters from 2-9 and A-Z, excluding I, L and O",
		domain.MinQRCodeLength, domain.MaxQRCodeLength)
)

// NormalizeQRCode upper-cases a scanned code and checks its format.
func NormalizeQRCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	ok, err := qrCodeExp.MatchString(code)
	if err != nil || !ok {
		return "", errInvalidQRCode
	}

	return code, nil
}

type GenerateQRCodesRequest struct {
	Count int `json:"count"`
}

func (req *GenerateQRCodesRequest) Validate(maxBatch int) error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Count, validation.Required, validation.Min(1), validation.Max(maxBatch)),
	)
}

type PrintQRCodesRequest struct {
	IDs []string `json:"ids"`
}

func (req *PrintQRCodesRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.IDs, validation.Required, validation.By(uuids)),
	)
}

type AssignQRCodeRequest struct {
	ChildID string `json:"childId"`
}

func (req *AssignQRCodeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ChildID, validation.Required, is.UUID),
	)
}

func uuids(value any) error {
	ids, _ := value.([]string)
	for _, id := range ids {
		if err := is.UUID.Validate(id); err != nil {
			return fmt.Errorf("%q %w", id, err)
		}
	}

	return nil
}
