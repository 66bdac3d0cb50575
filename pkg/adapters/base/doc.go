// Package base реализует adapters.Session поверх database/sql.
//
// Session держит ровно одно соединение (*sql.Conn из пула размером 1)
// на все время операции. Транзакция открывается лениво первым Exec/Query
// и закрывается Commit; Close откатывает незафиксированные изменения.
//
// Адаптер конкретной СУБД открывает Session через Open, а затем
// подставляет свой ErrorMapper, чтобы коды ошибок драйвера превращались
// в виды ошибок из pkg/core/failure:
//
//	sess, err := base.Open(ctx, "mysql", dataSource)
//	if err != nil {
//	    return err
//	}
//	sess.SetErrorMapper(mapMySQLError)
//
// Значения результата переводятся в ячейки файла через ValueToCell:
// SQL NULL становится tabular.Null, остальное - текстом.
package base
