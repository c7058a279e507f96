package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the text form of Date cells.
const DateLayout = "2006-01-02"

// FormatCell renders a cell as text. Null is "". Lists render as a JSON
// array so a consumer can split them unambiguously.
func FormatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case decimal.Decimal:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(DateLayout)
	case []string:
		return EncodeList(t)
	default:
		return fmt.Sprint(t)
	}
}

// EncodeList renders a list cell as a JSON array.
func EncodeList(xs []string) string {
	if len(xs) == 0 {
		return "[]"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(xs); err != nil {
		return "[]"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
