package finnhub

// Wire DTOs for the upstream REST API.

type fhSymbol struct {
	Symbol        string `json:"symbol"`
	Description   string `json:"description"`
	Mic           string `json:"mic"`
	Type          string `json:"type"`
	Currency      string `json:"currency"`
	DisplaySymbol string `json:"displaySymbol"`
}

type fhQuote struct {
	C  float64 `json:"c"`  // current price
	D  float64 `json:"d"`  // change
	DP float64 `json:"dp"` // percent change
	H  float64 `json:"h"`  // day high
	L  float64 `json:"l"`  // day low
	O  float64 `json:"o"`  // open
	PC float64 `json:"pc"` // previous close
	V  float64 `json:"v"`  // day volume
	T  int64   `json:"t"`  // unix seconds
}

type fhProfile struct {
	Name                 string  `json:"name"`
	MarketCapitalization float64 `json:"marketCapitalization"`
	Beta                 float64 `json:"beta"`
	Exchange             string  `json:"exchange"`
	FinnhubIndustry      string  `json:"finnhubIndustry"`
}

type fhRecommendation struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

type fhNewsItem struct {
	Datetime int64  `json:"datetime"` // unix seconds
	Headline string `json:"headline"`
	Source   string `json:"source"`
}

type fhMetricResponse struct {
	Metric struct {
		AvgVolume7d float64 `json:"7DayAverageTradingVolume"`
	} `json:"metric"`
}

type fhIPOCalendar struct {
	IPOCalendar []fhIPOEntry `json:"ipoCalendar"`
}

type fhIPOEntry struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Date           string  `json:"date"`
	Exchange       string  `json:"exchange"`
	Price          string  `json:"price"`
	NumberOfShares float64 `json:"numberOfShares"`
	Status         string  `json:"status"`
}
