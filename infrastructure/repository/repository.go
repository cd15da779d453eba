// Package repository implementa a persistência da API sobre database.Conn,
// funcionando tanto em postgres quanto em sqlite.
package repository

import (
	"errors"
	"time"

	"github.com/vfg2006/traffic-advisor-api/pkg/utils"
)

// ErrNotFound indica que a escrita não encontrou o registro esperado
var ErrNotFound = errors.New("registro não encontrado")

// dbTime normaliza instantes antes de gravar: UTC e precisão de segundos,
// para que comparações textuais no sqlite fiquem consistentes.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func dbTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return dbTime(*t)
}

// dbDate formata datas de fatos como YYYY-MM-DD, igual nos dois drivers
func dbDate(t time.Time) string {
	return t.UTC().Format(utils.DateLayout)
}
