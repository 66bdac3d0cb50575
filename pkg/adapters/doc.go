/*
Package adapters описывает узкий интерфейс между ядром переноса и СУБД.

# Уровни

	┌─────────────────────────────────────────┐
	│    pkg/etl (extract/upload/update/script)│
	└─────────────────┬───────────────────────┘
	                  │  Session, Cursor, SchemaInspector
	┌─────────────────▼───────────────────────┐
	│  pkg/adapters/base - database/sql сессия │
	│  одно соединение, ленивая транзакция     │
	└─────────────────┬───────────────────────┘
	                  │
	┌─────────────────▼───────────────────────┐
	│  pkg/adapters/mysql - DSN, каталог,      │
	│  коды ошибок MySQL                       │
	└─────────────────────────────────────────┘

Ядро не строит DSN и не знает протокола: оно передает готовый SQL-текст
в Session.Exec/Query и фиксирует изменения через Session.Commit.

# Использование

	import (
	    "github.com/ruslano69/easyjob/pkg/adapters"
	    _ "github.com/ruslano69/easyjob/pkg/adapters/mysql"
	    "github.com/ruslano69/easyjob/pkg/dsn"
	)

	target, err := dsn.Parse(uri)
	if err != nil {
	    return err
	}
	adapter, err := adapters.New(ctx, adapters.Config{Target: target})
	if err != nil {
	    return err
	}
	defer adapter.Close(ctx)

Тип адаптера выбирается по схеме URI до знака "+":
"mysql", "mysql+pymysql", "mysql+mysqldb" - все это MySQL.
*/
package adapters
