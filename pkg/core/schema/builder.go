package schema

// Builder собирает Assignment по колонкам (каталог, тесты)
type Builder struct {
	columns Assignment
}

// NewBuilder создает новый builder
func NewBuilder() *Builder {
	return &Builder{
		columns: Assignment{},
	}
}

// Add добавляет колонку произвольного типа (например из тега заголовка)
func (b *Builder) Add(name string, t DataType) *Builder {
	b.columns = append(b.columns, Column{Name: name, Type: t})
	return b
}

// Build возвращает копию собранного назначения
func (b *Builder) Build() Assignment {
	out := make(Assignment, len(b.columns))
	copy(out, b.columns)
	return out
}

// ColumnCount возвращает количество колонок
func (b *Builder) ColumnCount() int {
	return len(b.columns)
}
