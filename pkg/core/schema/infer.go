package schema

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ruslano69/easyjob/pkg/core/tabular"
)

// DefaultSampleChunk - размер порции при проходе по файлу
const DefaultSampleChunk = 1000

// RowSource - источник строк с заголовком (tabular.Reader)
type RowSource interface {
	Header() []string
	ReadChunk(n int) ([]tabular.Row, error)
}

// SplitTag разбивает заголовок "имя|ТИП" по первому разделителю
func SplitTag(header string) (name string, t DataType, tagged bool) {
	idx := strings.Index(header, TagSeparator)
	if idx < 0 {
		return header, "", false
	}
	return header[:idx], DataType(header[idx+len(TagSeparator):]), true
}

// ColumnName возвращает имя колонки без тега типа
func ColumnName(header string) string {
	name, _, _ := SplitTag(header)
	return name
}

// ColumnNames возвращает имена всех колонок заголовка без тегов
func ColumnNames(header []string) []string {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = ColumnName(h)
	}
	return names
}

// IsTagged - true, если каждая колонка заголовка несет явный тип
func IsTagged(header []string) bool {
	if len(header) == 0 {
		return false
	}
	for _, h := range header {
		if !strings.Contains(h, TagSeparator) {
			return false
		}
	}
	return true
}

// FromTaggedHeader строит назначение из самоописывающего заголовка
func FromTaggedHeader(header []string) (Assignment, error) {
	if !IsTagged(header) {
		return nil, errors.New("header is not fully tagged")
	}
	b := NewBuilder()
	for _, h := range header {
		name, t, _ := SplitTag(h)
		b.Add(name, t)
	}
	return b.Build(), nil
}

// Inferencer накапливает статистику по порциям строк
type Inferencer struct {
	names []string
	stats []*columnStats
}

// NewInferencer создает накопитель для заголовка
func NewInferencer(header []string) *Inferencer {
	inf := &Inferencer{
		names: ColumnNames(header),
		stats: make([]*columnStats, len(header)),
	}
	for i := range inf.stats {
		inf.stats[i] = newColumnStats()
	}
	return inf
}

// Observe учитывает порцию строк
func (inf *Inferencer) Observe(rows []tabular.Row) {
	for _, row := range rows {
		for i, s := range inf.stats {
			if i >= len(row) {
				s.observe("", true)
				continue
			}
			s.observe(row[i].Text, row[i].Null)
		}
	}
}

// Result возвращает назначение типов по накопленной статистике
func (inf *Inferencer) Result() Assignment {
	b := NewBuilder()
	for i, name := range inf.names {
		b.Add(name, inf.stats[i].resolve())
	}
	return b.Build()
}

// Infer назначает типы колонкам источника.
// Полностью размеченный заголовок используется как есть, строки не читаются.
// Иначе источник читается до конца порциями chunk строк.
func Infer(src RowSource, chunk int) (Assignment, error) {
	header := src.Header()
	if IsTagged(header) {
		return FromTaggedHeader(header)
	}

	if chunk <= 0 {
		chunk = DefaultSampleChunk
	}

	inf := NewInferencer(header)
	for {
		rows, err := src.ReadChunk(chunk)
		inf.Observe(rows)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to sample rows: %w", err)
		}
	}
	return inf.Result(), nil
}
