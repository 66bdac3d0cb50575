package sqlgen

import "github.com/ruslano69/easyjob/pkg/core/tabular"

// NullLiteral - SQL-литерал пустого значения
const NullLiteral = "NULL"

// Quote превращает ячейку в SQL-литерал.
// NULL пишется без кавычек, остальное - строковым литералом.
// Кавычки внутри значения не экранируются: генерируемый текст
// совпадает с тем, что ожидают существующие потребители.
func Quote(c tabular.Cell) string {
	if c.Null {
		return NullLiteral
	}
	return "'" + c.Text + "'"
}

// assign - "c='v'" или "c=NULL"
func assign(column string, c tabular.Cell) string {
	return column + "=" + Quote(c)
}

// match - "m='x'" или "m IS NULL"
func match(column string, c tabular.Cell) string {
	if c.Null {
		return column + " IS NULL"
	}
	return column + "=" + Quote(c)
}
