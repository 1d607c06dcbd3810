// Package barcode formats the identifier printed on every challan line and box label.
//
// Format: CH-{YY}-{challanNo:06d}-{itemIndex:02d}, e.g. CH-25-000007-03.
// The challan document and the label both call Format, so the two never diverge.
package barcode

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	// MaxChallanNo is the largest number that fits the six digit field.
	MaxChallanNo int64 = 999_999
	// MaxItemIndex is the largest item index that fits the two digit field.
	MaxItemIndex = 99
)

var pattern = regexp.MustCompile(`^CH-(\d{2})-(\d{6})-(\d{2})$`)

// Format builds the barcode text for one challan line.
// Values outside the fixed field widths are rejected instead of widened or truncated.
func Format(challanNo int64, itemIndex int, date time.Time) (string, error) {
	if err := checkRange(challanNo, itemIndex); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%02d", DocumentPrefix(challanNo, date), itemIndex), nil
}

// DocumentPrefix returns CH-{YY}-{challanNo:06d}, the part shared by the
// barcode and the challan PDF file name.
func DocumentPrefix(challanNo int64, date time.Time) string {
	return fmt.Sprintf("CH-%02d-%06d", date.Year()%100, challanNo)
}

// Valid reports whether s has the barcode shape.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// Parsed is a decoded barcode.
type Parsed struct {
	Year2     int
	ChallanNo int64
	ItemIndex int
}

// Parse decodes a scanned barcode back into its parts.
func Parse(s string) (Parsed, error) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return Parsed{}, fmt.Errorf("barcode %q: unexpected format", s)
	}
	// The regexp guarantees digits, conversion cannot fail here.
	year, _ := strconv.Atoi(m[1])
	no, _ := strconv.ParseInt(m[2], 10, 64)
	idx, _ := strconv.Atoi(m[3])
	return Parsed{Year2: year, ChallanNo: no, ItemIndex: idx}, nil
}

func checkRange(challanNo int64, itemIndex int) error {
	if challanNo < 1 || challanNo > MaxChallanNo {
		return fmt.Errorf("challan number %d outside 1..%d", challanNo, MaxChallanNo)
	}
	if itemIndex < 1 || itemIndex > MaxItemIndex {
		return fmt.Errorf("item index %d outside 1..%d", itemIndex, MaxItemIndex)
	}
	return nil
}
