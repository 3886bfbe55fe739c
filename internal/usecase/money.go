package usecase

import (
	"strings"

	"github.com/Coder20131462/Ecommerce-App/internal/domain/apperr"
)

// プロバイダが最小単位＝1通貨単位として扱う通貨（小数点以下なし）。
var zeroDecimalCurrencies = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {}, "kmf": {},
	"krw": {}, "mga": {}, "pyg": {}, "rwf": {}, "ugx": {}, "vnd": {},
	"vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}

// toMinorUnits は内部のセント建て金額をプロバイダの最小通貨単位へ変換する。
// 2桁小数通貨はそのまま。0桁小数通貨は100で割り切れない金額を表現できないので
// AmountConversionErrorになる。
func toMinorUnits(amountCents int64, currency string) (int64, error) {
	c := strings.ToLower(currency)
	if _, ok := zeroDecimalCurrencies[c]; ok {
		if amountCents%100 != 0 {
			return 0, &apperr.AmountConversionError{Amount: amountCents, Currency: currency}
		}
		return amountCents / 100, nil
	}
	return amountCents, nil
}
