package schema

import (
	"strconv"
	"strings"
)

// valueKind - грубый класс текстового значения
type valueKind int

const (
	kindText valueKind = iota
	kindBool
	kindNumber
)

// boolTokens - значения, которые читаются как логические
var boolTokens = map[string]struct{}{
	"True": {}, "TRUE": {}, "true": {},
	"False": {}, "FALSE": {}, "false": {},
}

// classify определяет класс не-NULL значения
func classify(raw string) valueKind {
	if _, ok := boolTokens[raw]; ok {
		return kindBool
	}
	if isNumeric(raw) {
		return kindNumber
	}
	return kindText
}

// isNumeric - целое или дробное число в десятичной записи
// Шестнадцатеричные литералы и разделители "_" числом не считаются
func isNumeric(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == "" {
		return false
	}
	if strings.ContainsAny(s, "_xXpP") {
		return false
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		// ParseFloat возвращает ErrRange для 1e400, число при этом корректно
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return true
		}
		return false
	}
	return true
}

// columnStats накапливает классы значений одной колонки
type columnStats struct {
	values     int
	nulls      int
	allBool    bool
	allNumeric bool
}

func newColumnStats() *columnStats {
	return &columnStats{allBool: true, allNumeric: true}
}

func (s *columnStats) observe(raw string, isNull bool) {
	if isNull {
		s.nulls++
		return
	}
	s.values++
	switch classify(raw) {
	case kindBool:
		s.allNumeric = false
	case kindNumber:
		s.allBool = false
	default:
		s.allBool = false
		s.allNumeric = false
	}
}

// resolve выбирает тип колонки:
// только логические без пропусков - BOOLEAN;
// только числа или только пропуски - DOUBLE;
// все прочее - CHAR(100)
func (s *columnStats) resolve() DataType {
	switch {
	case s.values == 0:
		return TypeDouble
	case s.allBool && s.nulls == 0:
		return TypeBoolean
	case s.allNumeric:
		return TypeDouble
	default:
		return TypeChar
	}
}
