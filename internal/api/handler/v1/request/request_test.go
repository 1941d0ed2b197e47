package request

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

func TestNormalizeQRCode(t *testing.T) {
	code, err := NormalizeQRCode("  ab3k9xyz ")
	require.NoError(t, err)
	assert.Equal(t, "AB3K9XYZ", code)

	for _, bad := range []string{"", "ABC", "AB0K9XYZ", "AB1K9XYZ", "ABIK9XYZ", "ABLK9XYZ", "ABOK9XYZ", "AB-K9XYZ", "ABCDEFGHJKMNPQRST2"} {
		_, err = NormalizeQRCode(bad)
		assert.ErrorIs(t, err, errInvalidQRCode, bad)
	}
}

func TestParseTime(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)

	got, dateOnly, err := ParseTime("2024-03-01", loc)
	require.NoError(t, err)
	assert.True(t, dateOnly)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, loc)))

	got, dateOnly, err = ParseTime("2024-03-01T10:15:00Z", loc)
	require.NoError(t, err)
	assert.False(t, dateOnly)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)))

	_, _, err = ParseTime("03/01/2024", loc)
	assert.ErrorIs(t, err, errInvalidDate)
}

func TestRangeEnd(t *testing.T) {
	end, err := RangeEnd("2024-03-01", time.UTC)
	require.NoError(t, err)
	assert.True(t, end.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)))

	end, err = RangeEnd("2024-03-01T12:00:00Z", time.UTC)
	require.NoError(t, err)
	assert.True(t, end.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestOptionalTime(t *testing.T) {
	got, err := OptionalTime("", time.UTC)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = OptionalTime("2024-05-04", time.UTC)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.Day())
}

func TestCreateChildRequest_Validate(t *testing.T) {
	ok := CreateChildRequest{Name: "Mia", Gender: "female", DateOfBirth: "2017-06-02"}
	assert.NoError(t, ok.Validate())

	for name, req := range map[string]CreateChildRequest{
		"no name":    {Gender: "female"},
		"no gender":  {Name: "Mia"},
		"bad gender": {Name: "Mia", Gender: "unknown"},
		"bad date":   {Name: "Mia", Gender: "male", DateOfBirth: "02/06/2017"},
		"bad parent": {Name: "Mia", Gender: "male", ParentID: "not-a-uuid"},
	} {
		assert.Error(t, req.Validate(), name)
	}
}

func TestBalanceMoveRequest_Validate(t *testing.T) {
	id := "4b9f7c56-0c55-4d6c-9b47-0b4b8d9b1f11"

	assert.NoError(t, (&BalanceMoveRequest{ChildID: id, AmountCents: 150}).Validate())
	assert.Error(t, (&BalanceMoveRequest{ChildID: id}).Validate())
	assert.Error(t, (&BalanceMoveRequest{ChildID: id, AmountCents: -5}).Validate())
	assert.NoError(t, (&BalanceMoveRequest{ChildID: id, AmountCents: domain.MaxMoveCents}).Validate())
	assert.Error(t, (&BalanceMoveRequest{ChildID: id, AmountCents: domain.MaxMoveCents + 1}).Validate())
	assert.Error(t, (&BalanceMoveRequest{ChildID: id, AmountCents: math.MaxInt64}).Validate())
	assert.Error(t, (&BalanceMoveRequest{AmountCents: 100}).Validate())
}

func TestVendorReturnRequest_Validate(t *testing.T) {
	id := "4b9f7c56-0c55-4d6c-9b47-0b4b8d9b1f11"
	zero, negative := 0, -1

	assert.NoError(t, (&VendorReturnRequest{VendorID: id, TokensSubmitted: &zero}).Validate())
	assert.NoError(t, (&VendorReturnRequest{VendorID: id, TokensSubmitted: &zero, MarketDate: "2024-06-01"}).Validate())
	assert.Error(t, (&VendorReturnRequest{VendorID: id}).Validate())
	assert.Error(t, (&VendorReturnRequest{VendorID: id, TokensSubmitted: &negative}).Validate())
	assert.Error(t, (&VendorReturnRequest{VendorID: id, TokensSubmitted: &zero, MarketDate: "June 1"}).Validate())
}

func TestQRRequests_Validate(t *testing.T) {
	assert.NoError(t, (&GenerateQRCodesRequest{Count: 1000}).Validate(1000))
	assert.Error(t, (&GenerateQRCodesRequest{Count: 1001}).Validate(1000))
	assert.Error(t, (&GenerateQRCodesRequest{}).Validate(1000))

	assert.NoError(t, (&PrintQRCodesRequest{IDs: []string{"4b9f7c56-0c55-4d6c-9b47-0b4b8d9b1f11"}}).Validate())
	assert.Error(t, (&PrintQRCodesRequest{}).Validate())
	assert.Error(t, (&PrintQRCodesRequest{IDs: []string{"nope"}}).Validate())
}

func TestProfileRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ProfileRequest{Name: "Pat", Phone: "+1 (555) 010-2030"}).Validate())
	assert.Error(t, (&ProfileRequest{}).Validate())
	assert.Error(t, (&ProfileRequest{Name: "Pat", Phone: "call me"}).Validate())

	assert.NoError(t, (&ChangeRoleRequest{Role: "vendor"}).Validate())
	assert.Error(t, (&ChangeRoleRequest{Role: "owner"}).Validate())
}
