package bulk

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encodings soportados por la exportación.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin1" // Windows-1252, lo que espera Excel en español
)

// CSVHeader orden estable de columnas de la exportación.
var CSVHeader = []string{"id", "name", "category", "type", "stock", "unit", "unit_cost", "min_stock", "active"}

// El lector de encoding/csv convierte \r\n en \n incluso dentro de campos entre comillas.
// En los campos de texto el retorno de carro se escribe como `\r` y la barra invertida
// como `\\`, así la exportación vuelve a leerse idéntica.
var (
	textEscaper   = strings.NewReplacer(`\`, `\\`, "\r", `\r`)
	textUnescaper = strings.NewReplacer(`\\`, `\`, `\r`, "\r")
)

// approxRowSize estimación de bytes por fila para reservar el buffer una sola vez.
const approxRowSize = 96

// ExportToCSV serializa los ítems en una cabecera más una fila por ítem. Es pura: no
// toca el ledger ni el catálogo. Las entradas sin id se reportan como fallidas y se omiten.
func ExportToCSV(items []entity.ItemStock) ([]byte, entity.BulkOperationResult) {
	var buf bytes.Buffer
	buf.Grow((len(items) + 1) * approxRowSize)
	w := csv.NewWriter(&buf)

	results := make([]entity.BulkItemResult, len(items))
	_ = w.Write(CSVHeader)
	row := make([]string, len(CSVHeader))
	for i := range items {
		it := &items[i]
		results[i].ID = it.ID
		if it.ID == "" {
			results[i].Error = "ítem sin id"
			continue
		}
		row[0] = textEscaper.Replace(it.ID)
		row[1] = textEscaper.Replace(it.Name)
		row[2] = textEscaper.Replace(it.Category)
		row[3] = textEscaper.Replace(it.Type)
		row[4] = it.Stock.String()
		row[5] = textEscaper.Replace(it.Unit)
		row[6] = it.UnitCost.String()
		row[7] = it.MinStock.String()
		row[8] = strconv.FormatBool(it.Active)
		if err := w.Write(row); err != nil {
			results[i].Error = err.Error()
		}
	}
	w.Flush()
	return buf.Bytes(), entity.NewBulkOperationResult(results)
}

// Encode transcodifica la salida UTF-8 al encoding pedido. Caracteres sin
// representación en Windows-1252 se reemplazan.
func Encode(data []byte, enc string) ([]byte, error) {
	switch normalizeEncoding(enc) {
	case EncodingUTF8:
		return data, nil
	case EncodingLatin1:
		out, _, err := transform.Bytes(encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()), data)
		if err != nil {
			return nil, fmt.Errorf("transcodificar csv: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("encoding no soportado: %s", enc)
	}
}

// ParseCSV interpreta una exportación y reconstruye los ítems.
func ParseCSV(r io.Reader, enc string) ([]entity.ItemStock, error) {
	switch normalizeEncoding(enc) {
	case EncodingUTF8:
	case EncodingLatin1:
		r = charmap.Windows1252.NewDecoder().Reader(r)
	default:
		return nil, fmt.Errorf("encoding no soportado: %s", enc)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv vacío: falta la cabecera")
		}
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	for i, col := range CSVHeader {
		if header[i] != col {
			return nil, fmt.Errorf("cabecera inválida: columna %d es %q, se esperaba %q", i+1, header[i], col)
		}
	}

	var out []entity.ItemStock
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("leer fila %d: %w", line, err)
		}
		it, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("fila %d: %w", line, err)
		}
		out = append(out, it)
	}
	return out, nil
}

func parseRecord(rec []string) (entity.ItemStock, error) {
	stock, err := decimal.NewFromString(rec[4])
	if err != nil {
		return entity.ItemStock{}, fmt.Errorf("stock: %w", err)
	}
	unitCost, err := decimal.NewFromString(rec[6])
	if err != nil {
		return entity.ItemStock{}, fmt.Errorf("unit_cost: %w", err)
	}
	minStock, err := decimal.NewFromString(rec[7])
	if err != nil {
		return entity.ItemStock{}, fmt.Errorf("min_stock: %w", err)
	}
	active, err := strconv.ParseBool(rec[8])
	if err != nil {
		return entity.ItemStock{}, fmt.Errorf("active: %w", err)
	}
	return entity.ItemStock{
		Item: entity.Item{
			ID:       textUnescaper.Replace(rec[0]),
			Name:     textUnescaper.Replace(rec[1]),
			Category: textUnescaper.Replace(rec[2]),
			Type:     textUnescaper.Replace(rec[3]),
			Unit:     textUnescaper.Replace(rec[5]),
			UnitCost: unitCost,
			MinStock: minStock,
			Active:   active,
		},
		Stock: stock,
	}, nil
}

func normalizeEncoding(enc string) string {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8
	case "latin1", "latin-1", "windows-1252", "cp1252", "iso-8859-1":
		return EncodingLatin1
	default:
		return enc
	}
}
