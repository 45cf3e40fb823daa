package models

import "errors"

// ErrMalformedLedger возвращается хранилищем, если сохраненная картера не является списком записей.
// Вызывающая сторона считает картеру пустой.
var ErrMalformedLedger = errors.New("stored ledger is malformed")

// ErrInflowAlreadyVoided возвращается, если поступление уже аннулировано
var ErrInflowAlreadyVoided = errors.New("inflow already voided")
