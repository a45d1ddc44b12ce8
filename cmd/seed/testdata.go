package main

import (
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/internal/storage"
)

func price(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// stockUniverse is the KOSPI/KOSDAQ set classes start from. Prices are
// only a starting point; the price feed overwrites them.
var stockUniverse = []storage.UpsertStockInput{
	{Symbol: "005930", Name: "Samsung Electronics", Market: "KOSPI", Sector: "Technology", CurrentPrice: price(75000), PreviousClose: price(74500)},
	{Symbol: "000660", Name: "SK Hynix", Market: "KOSPI", Sector: "Technology", CurrentPrice: price(130000), PreviousClose: price(128500)},
	{Symbol: "035420", Name: "NAVER", Market: "KOSPI", Sector: "Technology", CurrentPrice: price(220000), PreviousClose: price(219000)},
	{Symbol: "035720", Name: "Kakao", Market: "KOSPI", Sector: "Technology", CurrentPrice: price(56000), PreviousClose: price(56700)},
	{Symbol: "005380", Name: "Hyundai Motor", Market: "KOSPI", Sector: "Automotive", CurrentPrice: price(185000), PreviousClose: price(183000)},
	{Symbol: "000270", Name: "Kia", Market: "KOSPI", Sector: "Automotive", CurrentPrice: price(84000), PreviousClose: price(84900)},
	{Symbol: "051910", Name: "LG Chem", Market: "KOSPI", Sector: "Chemicals", CurrentPrice: price(520000), PreviousClose: price(515000)},
	{Symbol: "006400", Name: "Samsung SDI", Market: "KOSPI", Sector: "Chemicals", CurrentPrice: price(430000), PreviousClose: price(428000)},
	{Symbol: "068270", Name: "Celltrion", Market: "KOSPI", Sector: "Biotech", CurrentPrice: price(178000), PreviousClose: price(176500)},
	{Symbol: "207940", Name: "Samsung Biologics", Market: "KOSPI", Sector: "Biotech", CurrentPrice: price(780000), PreviousClose: price(775000)},
	{Symbol: "105560", Name: "KB Financial Group", Market: "KOSPI", Sector: "Finance", CurrentPrice: price(62000), PreviousClose: price(61500)},
	{Symbol: "055550", Name: "Shinhan Financial Group", Market: "KOSPI", Sector: "Finance", CurrentPrice: price(45000), PreviousClose: price(44800)},
	{Symbol: "017670", Name: "SK Telecom", Market: "KOSPI", Sector: "Telecom", CurrentPrice: price(51000), PreviousClose: price(51200)},
	{Symbol: "015760", Name: "KEPCO", Market: "KOSPI", Sector: "Utilities", CurrentPrice: price(21000), PreviousClose: price(20850)},
	{Symbol: "090430", Name: "Amorepacific", Market: "KOSPI", Sector: "Consumer", CurrentPrice: price(128000), PreviousClose: price(127000)},
	{Symbol: "097950", Name: "CJ CheilJedang", Market: "KOSPI", Sector: "Consumer", CurrentPrice: price(310000), PreviousClose: price(308000)},
	{Symbol: "247540", Name: "Ecopro BM", Market: "KOSDAQ", Sector: "Chemicals", CurrentPrice: price(245000), PreviousClose: price(242000)},
	{Symbol: "293490", Name: "Kakao Games", Market: "KOSDAQ", Sector: "Technology", CurrentPrice: price(21500), PreviousClose: price(21700)},
}

// demoAllowlist is the subset the demo class can trade on day one.
var demoAllowlist = []string{"005930", "000660", "035420", "005380", "105560"}
