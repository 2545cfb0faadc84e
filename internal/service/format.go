package service

import (
	"fmt"

	"github.com/richardliu001/store-credit-service/internal/config"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders balances for display, e.g. "$1,234.50".
type Formatter struct {
	symbol  string
	places  int32
	verb    string
	printer *message.Printer
}

func NewFormatter(c config.CurrencyConfig) *Formatter {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		tag = language.English
	}
	symbol := c.Symbol
	if symbol == "" {
		symbol = c.Code
	}
	return &Formatter{
		symbol:  symbol,
		places:  c.Decimals,
		verb:    fmt.Sprintf("%%.%df", c.Decimals),
		printer: message.NewPrinter(tag),
	}
}

func (f *Formatter) Format(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + f.symbol + f.printer.Sprintf(f.verb, d.Round(f.places).InexactFloat64())
}
