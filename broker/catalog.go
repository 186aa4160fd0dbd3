package broker

import "time"

// UpstoxConfig returns the catalog for the Upstox v2 API: quote, OHLC, and
// candle reads plus the portfolio and account surfaces.
func UpstoxConfig() ServiceConfig {
	return ServiceConfig{
		Name:           "upstox",
		BaseURL:        "https://api.upstox.com/v2/",
		RatePerSecond:  25,
		Timeout:        10 * time.Second,
		MaxRetries:     3,
		MaxConnections: 20,
		CacheTTL:       30 * time.Second,
		CircuitBreaker: true,
		DefaultHeaders: map[string]string{
			"Accept": "application/json",
		},
		Endpoints: map[string]EndpointConfig{
			"quote": {
				Path:        "market-quote/quotes",
				Method:      "GET",
				Description: "Full quotes for instruments",
				UseCache:    true,
				CacheTTL:    time.Second,
			},
			"ohlc": {
				Path:        "market-quote/ohlc",
				Method:      "GET",
				Description: "OHLC snapshots for instruments",
				UseCache:    true,
				CacheTTL:    time.Second,
			},
			"ltp": {
				Path:        "market-quote/ltp",
				Method:      "GET",
				Description: "Last traded price for instruments",
				UseCache:    true,
				CacheTTL:    time.Second,
			},
			"market_status": {
				Path:        "market-quote/market-status/{segment}",
				Method:      "GET",
				Description: "Market status for a segment",
				UseCache:    true,
				CacheTTL:    time.Minute,
			},
			"candles": {
				Path:        "chart/open/v3/candles/",
				Method:      "GET",
				Description: "Intraday candles for an instrument",
				UseCache:    true,
				CacheTTL:    5 * time.Second,
			},
			"historical_candles": {
				Path:        "historical-candle/{instrument_key}/{interval}/{to_date}",
				Method:      "GET",
				Description: "Historical candles up to a date",
				UseCache:    true,
				CacheTTL:    5 * time.Minute,
			},
			"option_chain": {
				Path:        "option/chain",
				Method:      "GET",
				Description: "Option chain for an underlying",
				UseCache:    true,
				CacheTTL:    5 * time.Second,
			},
			"holdings": {
				Path:        "portfolio/long-term-holdings",
				Method:      "GET",
				Description: "Long term holdings",
				UseCache:    true,
				CacheTTL:    30 * time.Second,
			},
			"positions": {
				Path:        "portfolio/short-term-positions",
				Method:      "GET",
				Description: "Short term positions",
				UseCache:    true,
				CacheTTL:    5 * time.Second,
			},
			"funds": {
				Path:        "user/get-funds-and-margin",
				Method:      "GET",
				Description: "Available funds and margin",
				UseCache:    true,
				CacheTTL:    10 * time.Second,
			},
			"profile": {
				Path:        "user/profile",
				Method:      "GET",
				Description: "User profile information",
				UseCache:    true,
				CacheTTL:    time.Hour,
			},
		},
	}
}

// GrowwConfig returns the catalog for Groww's public market data API.
func GrowwConfig() ServiceConfig {
	return ServiceConfig{
		Name:           "groww",
		BaseURL:        "https://groww.in/",
		RatePerSecond:  50,
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		MaxConnections: 10,
		CacheTTL:       5 * time.Minute,
		CircuitBreaker: true,
		DefaultHeaders: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
		Endpoints: map[string]EndpointConfig{
			"indices": {
				Path:        "v1/api/stocks_data/v1/accord_points/exchange/NSE/segment/CASH/latest_indices_ohlc/{index}",
				Method:      "GET",
				Description: "Latest OHLC for an NSE index",
				UseCache:    true,
				CacheTTL:    30 * time.Second,
			},
			"live_aggregated": {
				Path:        "v1/api/stocks_data/v1/tr_live_delayed/segment/CASH/latest_aggregated",
				Method:      "POST",
				Description: "Live aggregated market data",
				UseCache:    true,
				CacheTTL:    5 * time.Second,
			},
			"sector_data": {
				Path:        "v1/api/stocks_data/v1/sector/latest",
				Method:      "GET",
				Description: "Sectoral performance data",
				UseCache:    true,
				CacheTTL:    2 * time.Minute,
			},
		},
	}
}

// XTSConfig returns the catalog for XTS (Symphony Fintech): the market
// data API plus the interactive portfolio and account reads. XTS expects a
// Source header on every request.
func XTSConfig() ServiceConfig {
	return ServiceConfig{
		Name:           "xts",
		BaseURL:        "https://developers.symphonyfintech.in/",
		RatePerSecond:  10,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		MaxConnections: 10,
		CacheTTL:       time.Minute,
		CircuitBreaker: true,
		DefaultHeaders: map[string]string{
			"Accept": "application/json",
			"Source": "WebAPI",
		},
		Endpoints: map[string]EndpointConfig{
			"quotes": {
				Path:        "apimarketdata/instruments/quotes",
				Method:      "GET",
				Description: "Real-time quotes",
				UseCache:    true,
				CacheTTL:    time.Second,
			},
			"ohlc": {
				Path:        "apimarketdata/instruments/ohlc",
				Method:      "GET",
				Description: "OHLC data for instruments",
				UseCache:    true,
				CacheTTL:    time.Minute,
			},
			"master": {
				Path:        "apimarketdata/instruments/master",
				Method:      "GET",
				Description: "Instruments master data",
				UseCache:    true,
				CacheTTL:    24 * time.Hour,
			},
			"search": {
				Path:        "apimarketdata/search/instruments",
				Method:      "GET",
				Description: "Search instruments by string",
				UseCache:    true,
				CacheTTL:    5 * time.Minute,
			},
			"profile": {
				Path:        "interactive/user/profile",
				Method:      "GET",
				Description: "User profile information",
				UseCache:    true,
				CacheTTL:    time.Hour,
			},
			"balance": {
				Path:        "interactive/user/balance",
				Method:      "GET",
				Description: "Account balance",
				UseCache:    true,
				CacheTTL:    time.Minute,
			},
			"positions": {
				Path:        "interactive/portfolio/positions",
				Method:      "GET",
				Description: "Portfolio positions",
				UseCache:    true,
				CacheTTL:    10 * time.Second,
			},
			"holdings": {
				Path:        "interactive/portfolio/holdings",
				Method:      "GET",
				Description: "Portfolio holdings",
				UseCache:    true,
				CacheTTL:    time.Minute,
			},
		},
	}
}

// Intervals maps interval names to the wire codes used by candle endpoints.
var Intervals = map[string]string{
	"1MIN":   "I1",
	"5MIN":   "I5",
	"15MIN":  "I15",
	"30MIN":  "I30",
	"1HOUR":  "I60",
	"1DAY":   "1D",
	"1WEEK":  "1W",
	"1MONTH": "1M",
}

// Segments lists the market segments used in instrument keys.
var Segments = []string{
	"NSE_EQ", // NSE equity
	"NSE_FO", // NSE futures and options
	"BSE_EQ", // BSE equity
	"NSE_CD", // NSE currency derivatives
	"MCX_FO", // MCX commodity derivatives
}

// PopularInstruments maps common NSE symbols to their instrument keys,
// handy for demos and smoke tests.
var PopularInstruments = map[string]string{
	"RELIANCE":   "NSE_EQ|INE002A01018",
	"TCS":        "NSE_EQ|INE467B01029",
	"INFY":       "NSE_EQ|INE009A01021",
	"HDFCBANK":   "NSE_EQ|INE040A01034",
	"ICICIBANK":  "NSE_EQ|INE090A01021",
	"KOTAKBANK":  "NSE_EQ|INE237A01028",
	"BHARTIARTL": "NSE_EQ|INE397D01024",
	"ITC":        "NSE_EQ|INE154A01025",
	"LT":         "NSE_EQ|INE018A01030",
}

// BuiltinConfigs returns the built-in service catalogs sorted by name.
func BuiltinConfigs() []ServiceConfig {
	return []ServiceConfig{GrowwConfig(), UpstoxConfig(), XTSConfig()}
}

// BuiltinConfig returns the built-in catalog registered under name.
func BuiltinConfig(name string) (ServiceConfig, bool) {
	for _, cfg := range BuiltinConfigs() {
		if cfg.Name == name {
			return cfg, true
		}
	}
	return ServiceConfig{}, false
}
