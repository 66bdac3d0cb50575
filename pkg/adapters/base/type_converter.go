package base

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ruslano69/easyjob/pkg/core/tabular"
)

// TimeLayout - текстовый вид DATETIME/TIMESTAMP в выгрузке
const TimeLayout = "2006-01-02 15:04:05"

// ValueToCell конвертирует значение драйвера в ячейку файла
// nil становится NULL; остальное - текстовым представлением
func ValueToCell(val any) tabular.Cell {
	if val == nil {
		return tabular.Null
	}
	return tabular.Value(ValueToString(val))
}

// ValueToString конвертирует значение БД в строку
// MySQL в текстовом протоколе отдает []byte, sqlite - типизированные значения
func ValueToString(val any) string {
	switch v := val.(type) {
	case []byte:
		return string(v)

	case string:
		return v

	case int64:
		return strconv.FormatInt(v, 10)

	case int, int8, int16, int32:
		return fmt.Sprintf("%d", v)

	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)

	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)

	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)

	case bool:
		if v {
			return "1"
		}
		return "0"

	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format("2006-01-02")
		}
		return v.Format(TimeLayout)

	default:
		return fmt.Sprintf("%v", v)
	}
}
