package records

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/skillchart/pkg/models"
)

// DecodeHTMLTable reads the first table in an HTML export and adapts each
// body row, keyed by the header cells. Empty cells become nil; cells holding
// a plain number become json.Number so they chart like JSON numbers.
func DecodeHTMLTable(r io.Reader) ([]models.ProgressUpdate, error) {
	recs, err := decodeHTMLTable(r)
	if err != nil {
		return nil, err
	}
	return FromMaps(recs), nil
}

func decodeHTMLTable(r io.Reader) ([]map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table found")
	}

	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, headerKey(th.Text()))
	})

	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		rows = table.Find("tr")
	}

	var recs []map[string]any
	rows.Each(func(_ int, row *goquery.Selection) {
		// Tables without a thead carry their header as the first th row.
		if len(headers) == 0 && row.Find("th").Length() > 0 {
			row.Find("th").Each(func(_ int, th *goquery.Selection) {
				headers = append(headers, headerKey(th.Text()))
			})
			return
		}
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		rec := make(map[string]any, len(headers))
		cells.Each(func(i int, td *goquery.Selection) {
			if i >= len(headers) || headers[i] == "" {
				return
			}
			rec[headers[i]] = cellValue(td.Text())
		})
		recs = append(recs, rec)
	})

	if len(headers) == 0 {
		return nil, fmt.Errorf("table has no header row")
	}
	return recs, nil
}

// headerKey turns "Update Date" into "update_date" so headers meet the
// same aliases as JSON keys.
func headerKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), "_"))
}

func cellValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return json.Number(s)
	}
	return s
}
