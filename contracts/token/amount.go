package token

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/xerrors"
)

// Decimals is the number of decimals of the display unit of the asset.
const Decimals = 7

var maxAmount = decimal.NewFromInt(math.MaxInt64).Mul(decimal.NewFromInt(2)).Add(decimal.NewFromInt(1))

// FormatAmount returns the amount in the display unit with all the decimals.
func FormatAmount(amount uint64) string {
	value, _ := decimal.NewFromString(strconv.FormatUint(amount, 10))

	return value.Shift(-Decimals).StringFixed(Decimals)
}

// ParseAmount returns the amount in the smallest unit of the display value. It
// rejects negative values, more decimals than the asset supports and values
// that do not fit.
func ParseAmount(text string) (uint64, error) {
	value, err := decimal.NewFromString(text)
	if err != nil {
		return 0, xerrors.Errorf("malformed amount '%s': %v", text, err)
	}

	if value.IsNegative() {
		return 0, xerrors.Errorf("negative amount '%s'", text)
	}

	units := value.Shift(Decimals)
	if !units.Equal(units.Truncate(0)) {
		return 0, xerrors.Errorf("amount '%s' has more than %d decimals", text, Decimals)
	}

	if units.GreaterThan(maxAmount) {
		return 0, xerrors.Errorf("amount '%s' is too large", text)
	}

	amount, err := strconv.ParseUint(units.String(), 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("failed to convert '%s': %v", text, err)
	}

	return amount, nil
}
