package utils

import "github.com/shopspring/decimal"

var microsPerUnit = decimal.NewFromInt(1_000_000)

func RoundWithTwoDecimalPlace(f float64) float64 {
	if f == 0 {
		return 0
	}

	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// RoundTo arredonda para a quantidade de casas informada
func RoundTo(f float64, places int32) float64 {
	if f == 0 {
		return 0
	}

	return decimal.NewFromFloat(f).Round(places).InexactFloat64()
}

// MicrosToUSD converte valores em micros (1/1.000.000) para dólares
func MicrosToUSD(micros int64) float64 {
	return decimal.NewFromInt(micros).Div(microsPerUnit).Round(2).InexactFloat64()
}

// Percent retorna part / total * 100, ou 0 quando total não é positivo
func Percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}

	return RoundTo(part/total*100, 2)
}
