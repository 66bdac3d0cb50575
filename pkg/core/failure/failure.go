// Package failure описывает типизированные ошибки операций переноса данных.
//
// Каждая ошибка несет Kind, по которому вызывающая сторона (CLI) принимает
// решение о дальнейших действиях. Ядро ошибки не перехватывает и не повторяет.
package failure

import (
	"errors"
	"fmt"
)

// Kind - вид ошибки
type Kind string

const (
	// MalformedAddress - строку подключения невозможно разобрать
	MalformedAddress Kind = "MalformedAddress"

	// TableNotFound - каталог не вернул ни одной колонки для таблицы
	TableNotFound Kind = "TableNotFound"

	// IllegalQuery - запрос не похож на SELECT ... FROM ...
	IllegalQuery Kind = "IllegalQuery"

	// ColumnNotFound - колонка отсутствует в заголовке файла
	ColumnNotFound Kind = "ColumnNotFound"

	// MissingParameter - в скрипте есть плейсхолдер без значения
	MissingParameter Kind = "MissingParameter"

	// MalformedRow - строка файла длиннее заголовка
	MalformedRow Kind = "MalformedRow"

	// DatabaseOperationFailed - ошибка execute/commit/fetch на стороне БД
	DatabaseOperationFailed Kind = "DatabaseOperationFailed"
)

// Error - ошибка с видом
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// New создает ошибку указанного вида
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap оборачивает err в ошибку указанного вида
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return string(e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Msg == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает только вид, поэтому errors.Is(err, failure.ErrTableNotFound)
// срабатывает для любой ошибки TableNotFound в цепочке
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel-значения для errors.Is
var (
	ErrMalformedAddress        = &Error{Kind: MalformedAddress}
	ErrTableNotFound           = &Error{Kind: TableNotFound}
	ErrIllegalQuery            = &Error{Kind: IllegalQuery}
	ErrColumnNotFound          = &Error{Kind: ColumnNotFound}
	ErrMissingParameter        = &Error{Kind: MissingParameter}
	ErrMalformedRow            = &Error{Kind: MalformedRow}
	ErrDatabaseOperationFailed = &Error{Kind: DatabaseOperationFailed}
)

// KindOf возвращает вид первой типизированной ошибки в цепочке или ""
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is проверяет, есть ли в цепочке ошибка указанного вида
func Is(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
