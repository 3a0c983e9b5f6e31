package exportpdf

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/page"

	"github.com/goliatone/go-cvwizard/cv"
)

const defaultPDFScale = 1.0

// paperSizesMM lists supported paper sizes as portrait width x height.
var paperSizesMM = map[string][2]float64{
	"A3":     {297, 420},
	"A4":     {210, 297},
	"A5":     {148, 210},
	"B5":     {176, 250},
	"LETTER": {215.9, 279.4},
	"LEGAL":  {215.9, 355.6},
}

// inchesPer converts one unit of each length suffix into inches.
var inchesPer = map[string]float64{
	"":   1,
	"in": 1,
	"cm": 1 / 2.54,
	"mm": 1 / 25.4,
	"pt": 1 / 72.0,
	"px": 1 / 96.0,
}

func buildPrintToPDFParams(opts Options) (*page.PrintToPDFParams, error) {
	scale := opts.Scale
	if scale == 0 {
		scale = defaultPDFScale
	}
	if scale < 0.1 || scale > 2.0 {
		return nil, cv.NewError(cv.KindValidation, "pdf scale must be between 0.1 and 2.0", nil)
	}
	params := page.PrintToPDF().WithScale(scale)

	if opts.Landscape != nil {
		params = params.WithLandscape(*opts.Landscape)
	}
	if opts.PrintBackground != nil {
		params = params.WithPrintBackground(*opts.PrintBackground)
	}

	switch {
	case opts.PreferCSSPageSize != nil:
		params = params.WithPreferCSSPageSize(*opts.PreferCSSPageSize)
	case opts.PageSize == "":
		params = params.WithPreferCSSPageSize(true)
	}
	if opts.PageSize != "" {
		size, ok := paperSizesMM[strings.ToUpper(strings.TrimSpace(opts.PageSize))]
		if !ok {
			return nil, cv.NewError(cv.KindValidation, fmt.Sprintf("unsupported pdf page size: %s", opts.PageSize), nil)
		}
		params = params.WithPaperWidth(size[0] * inchesPer["mm"]).WithPaperHeight(size[1] * inchesPer["mm"])
	}

	margins := []struct {
		value string
		set   func(*page.PrintToPDFParams, float64) *page.PrintToPDFParams
	}{
		{opts.MarginTop, (*page.PrintToPDFParams).WithMarginTop},
		{opts.MarginRight, (*page.PrintToPDFParams).WithMarginRight},
		{opts.MarginBottom, (*page.PrintToPDFParams).WithMarginBottom},
		{opts.MarginLeft, (*page.PrintToPDFParams).WithMarginLeft},
	}
	for _, m := range margins {
		if strings.TrimSpace(m.value) == "" {
			continue
		}
		inches, err := parseLengthInches(m.value)
		if err != nil {
			return nil, err
		}
		params = m.set(params, inches)
	}
	return params, nil
}

// parseLengthInches accepts a number with an optional in, cm, mm, pt or px
// suffix. A bare number is inches.
func parseLengthInches(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	split := strings.IndexFunc(trimmed, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	number, unit := trimmed, ""
	if split >= 0 {
		number, unit = trimmed[:split], strings.ToLower(strings.TrimSpace(trimmed[split:]))
	}
	factor, ok := inchesPer[unit]
	if !ok {
		return 0, cv.NewError(cv.KindValidation, fmt.Sprintf("unsupported pdf length unit: %s", unit), nil)
	}
	amount, err := strconv.ParseFloat(number, 64)
	if err != nil || amount < 0 {
		return 0, cv.NewError(cv.KindValidation, fmt.Sprintf("invalid pdf length: %s", value), err)
	}
	return amount * factor, nil
}

// withBaseURL adds a <base> element so relative asset links in templates
// resolve against baseURL. Markup that already has one is left alone.
func withBaseURL(markup []byte, baseURL string) []byte {
	baseURL = strings.TrimSpace(baseURL)
	lower := bytes.ToLower(markup)
	if baseURL == "" || bytes.Contains(lower, []byte("<base")) {
		return markup
	}

	tag := []byte(`<base href="` + html.EscapeString(baseURL) + `">`)
	insertAfter := func(open string) int {
		start := bytes.Index(lower, []byte(open))
		if start < 0 {
			return -1
		}
		end := bytes.IndexByte(lower[start:], '>')
		if end < 0 {
			return -1
		}
		return start + end + 1
	}

	if at := insertAfter("<head"); at >= 0 {
		return splice(markup, at, tag)
	}
	if at := insertAfter("<html"); at >= 0 {
		return splice(markup, at, append(append([]byte("<head>"), tag...), "</head>"...))
	}
	return splice(markup, 0, tag)
}

func splice(dst []byte, at int, insert []byte) []byte {
	out := make([]byte, 0, len(dst)+len(insert))
	out = append(out, dst[:at]...)
	out = append(out, insert...)
	return append(out, dst[at:]...)
}
