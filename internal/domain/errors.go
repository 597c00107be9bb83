package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownOrdering se devuelve al pedir un leaderboard con un nombre no soportado.
	ErrUnknownOrdering = errors.New("unknown leaderboard ordering")
	// ErrMarketNotFound se devuelve cuando un slug no resuelve a ningún mercado.
	ErrMarketNotFound = errors.New("market not found")
	// ErrNoSnapshot se devuelve cuando todavía no hay ningún snapshot guardado.
	ErrNoSnapshot = errors.New("no snapshot stored")
)

// FetchError es el fallo de una fuente de datos para una wallet concreta.
// El collector los acumula en vez de abortar el lote.
type FetchError struct {
	Wallet string
	Source string // positions | closed | activity
	Err    error
}

func (e FetchError) Error() string {
	return fmt.Sprintf("fetch %s for %s: %v", e.Source, e.Wallet, e.Err)
}

func (e FetchError) Unwrap() error { return e.Err }
