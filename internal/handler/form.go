package handler

import (
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "regexp"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
)

// formBody is a decoded JSON object from the mobile client.  Forms send a
// mix of numbers, numeric strings, arrays and camelCase keys, so fields are
// read loosely through the helpers below instead of a fixed struct.
type formBody map[string]any

var errInvalidJSON = errors.New("invalid JSON body")

// readForm decodes the request body.  An empty body is an empty form.
func readForm(c echo.Context) (formBody, error) {
    dec := json.NewDecoder(c.Request().Body)
    dec.UseNumber()
    var body formBody
    if err := dec.Decode(&body); err != nil {
        if errors.Is(err, io.EOF) {
            return formBody{}, nil
        }
        return nil, errInvalidJSON
    }
    if body == nil {
        body = formBody{}
    }
    return body, nil
}

// pick returns the first of keys that is present and not null.
func (f formBody) pick(keys ...string) any {
    for _, k := range keys {
        if v, ok := f[k]; ok && v != nil {
            return v
        }
    }
    return nil
}

// str trims a value to a string; empty becomes nil.
func str(v any) *string {
    var s string
    switch t := v.(type) {
    case nil:
        return nil
    case string:
        s = t
    case json.Number:
        s = t.String()
    case []any:
        parts := make([]string, 0, len(t))
        for _, p := range t {
            parts = append(parts, fmt.Sprint(p))
        }
        s = strings.Join(parts, ",")
    default:
        s = fmt.Sprint(t)
    }
    s = strings.TrimSpace(s)
    if s == "" {
        return nil
    }
    return &s
}

// list joins the trimmed, non-blank items of an array with commas; any
// other value goes through str.  An empty array is nil.
func list(v any) *string {
    arr, ok := v.([]any)
    if !ok {
        return str(v)
    }
    parts := make([]string, 0, len(arr))
    for _, p := range arr {
        if s := strings.TrimSpace(fmt.Sprint(p)); s != "" {
            parts = append(parts, s)
        }
    }
    if len(parts) == 0 {
        return nil
    }
    s := strings.Join(parts, ",")
    return &s
}

var (
    intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
    floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// numText returns the text form of a JSON number or string.
func numText(v any) (string, bool) {
    switch t := v.(type) {
    case json.Number:
        return t.String(), true
    case string:
        return strings.TrimSpace(t), true
    case float64:
        return strconv.FormatFloat(t, 'f', -1, 64), true
    }
    return "", false
}

// intOrNull reads the leading integer of a number or string: "27" and
// "27 years" give 27, "3.9" gives 3, "abc" gives nil.
func intOrNull(v any) *int64 {
    s, ok := numText(v)
    if !ok {
        return nil
    }
    m := intPrefix.FindString(s)
    if m == "" {
        return nil
    }
    n, err := strconv.ParseInt(m, 10, 64)
    if err != nil {
        return nil
    }
    return &n
}

// floatOrNull reads the leading decimal of a number or string.
func floatOrNull(v any) *float64 {
    s, ok := numText(v)
    if !ok {
        return nil
    }
    m := floatPrefix.FindString(s)
    if m == "" {
        return nil
    }
    f, err := strconv.ParseFloat(m, 64)
    if err != nil {
        return nil
    }
    return &f
}

var dateLayouts = []string{
    time.RFC3339Nano,
    "2006-01-02T15:04:05",
    "2006-01-02 15:04:05",
    "2006-01-02T15:04",
    "2006-01-02",
    "2006/01/02",
}

// parseTime accepts ISO dates and date-times; layouts without a zone are
// read as UTC.
func parseTime(v any) (time.Time, bool) {
    s := str(v)
    if s == nil {
        return time.Time{}, false
    }
    for _, layout := range dateLayouts {
        if t, err := time.Parse(layout, *s); err == nil {
            return t.UTC(), true
        }
    }
    return time.Time{}, false
}

// parseID reads an integer path parameter.  ok is false only for text
// that is not an integer.  Zero and negative ids come back as 0, which
// matches no row, so lookups answer 404 rather than 400.
func parseID(c echo.Context) (uint64, bool) {
    n, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
    if err != nil {
        return 0, false
    }
    return uint64(max(n, 0)), true
}
