// Package schema назначает SQL-типы колонкам плоского файла.
//
// Политика намеренно грубая: три типа CHAR(100), BOOLEAN, DOUBLE.
// Файл может описать схему сам, если каждая колонка заголовка
// записана как "имя|ТИП".
package schema

import (
	"fmt"
	"strings"
)

// DataType - токен SQL-типа колонки
type DataType string

// Типы, которые выдает вывод типов
const (
	TypeChar    DataType = "CHAR(100)"
	TypeBoolean DataType = "BOOLEAN"
	TypeDouble  DataType = "DOUBLE"
)

// TagSeparator разделяет имя колонки и явный тип в заголовке
const TagSeparator = "|"

// Column - колонка с назначенным типом
type Column struct {
	Name string
	Type DataType
}

// Assignment - типы колонок в порядке заголовка
type Assignment []Column

// Names возвращает имена колонок по порядку
func (a Assignment) Names() []string {
	names := make([]string, len(a))
	for i, c := range a {
		names[i] = c.Name
	}
	return names
}

// TaggedHeader возвращает самоописывающий заголовок "имя|ТИП"
func (a Assignment) TaggedHeader() []string {
	header := make([]string, len(a))
	for i, c := range a {
		header[i] = c.Name + TagSeparator + string(c.Type)
	}
	return header
}

// Equal сравнивает назначения с учетом порядка
func (a Assignment) Equal(other Assignment) bool {
	if len(a) != len(other) {
		return false
	}
	for i := range a {
		if a[i] != other[i] {
			return false
		}
	}
	return true
}

// String - "a DOUBLE, b CHAR(100)"
func (a Assignment) String() string {
	parts := make([]string, len(a))
	for i, c := range a {
		parts[i] = fmt.Sprintf("%s %s", c.Name, c.Type)
	}
	return strings.Join(parts, ", ")
}
