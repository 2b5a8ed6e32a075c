package tdclient

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ChainRequest holds the query parameters of the chains endpoint.
type ChainRequest struct {
	Symbol        string
	ContractType  string // CALL, PUT or ALL
	FromDate      time.Time
	ToDate        time.Time
	IncludeQuotes bool
	StrikeCount   int
	Range         string
	Strategy      string
}

// BuildChainRequest asks for every contract of symbol expiring between
// today and months from now.
func BuildChainRequest(symbol string, now time.Time, months int) ChainRequest {
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return ChainRequest{
		Symbol:        strings.ToUpper(strings.TrimSpace(symbol)),
		ContractType:  "ALL",
		FromDate:      from,
		ToDate:        from.AddDate(0, months, 0),
		IncludeQuotes: true,
	}
}

func (r ChainRequest) Values() url.Values {
	v := url.Values{}
	v.Set("symbol", r.Symbol)
	if r.ContractType != "" {
		v.Set("contractType", r.ContractType)
	}
	if !r.FromDate.IsZero() {
		v.Set("fromDate", r.FromDate.Format(dateLayout))
	}
	if !r.ToDate.IsZero() {
		v.Set("toDate", r.ToDate.Format(dateLayout))
	}
	if r.IncludeQuotes {
		v.Set("includeQuotes", "TRUE")
	}
	if r.StrikeCount > 0 {
		v.Set("strikeCount", strconv.Itoa(r.StrikeCount))
	}
	if r.Range != "" {
		v.Set("range", r.Range)
	}
	if r.Strategy != "" {
		v.Set("strategy", r.Strategy)
	}
	return v
}
