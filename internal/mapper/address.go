package mapper

import (
	"strconv"
	"strings"

	"github.com/rastreiamais/rastreia/internal/form"
)

// AddressPayload is the /api/v1/locations/address/ resource.
type AddressPayload struct {
	UF         string  `json:"uf"`
	City       string  `json:"city"`
	District   string  `json:"district"`
	Street     string  `json:"street"`
	Number     int     `json:"number"`
	Complement *string `json:"complement"`
	Zipcode    *string `json:"zipcode"`
}

// AddressRecord is an address as returned by the backend.
type AddressRecord struct {
	ID int `json:"id"`
	AddressPayload
}

// DefaultAddressNumber is used when the street text carries no number.
const DefaultAddressNumber = 1

// AddressToAPI maps the free-text address block. It returns nil when the
// minimum fields (street, district, city, UF) are not all present.
func AddressToAPI(e form.Endereco) *AddressPayload {
	if strings.TrimSpace(e.Logradouro) == "" || strings.TrimSpace(e.Bairro) == "" ||
		strings.TrimSpace(e.Cidade) == "" || strings.TrimSpace(e.UF) == "" {
		return nil
	}
	street, number := SplitStreet(e.Logradouro)
	return &AddressPayload{
		UF:       strings.ToUpper(strings.TrimSpace(e.UF)),
		City:     strings.TrimSpace(e.Cidade),
		District: strings.TrimSpace(e.Bairro),
		Street:   street,
		Number:   number,
		Zipcode:  optString(e.CEP),
	}
}

// SplitStreet separates "Rua das Flores, 120" into street and number. A
// trailing number without a comma ("Rua B 45") is also recognised. Anything
// else keeps the whole text as the street and number DefaultAddressNumber.
func SplitStreet(s string) (string, int) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, ","); i >= 0 {
		if n, ok := leadingNumber(s[i+1:]); ok {
			return strings.TrimSpace(s[:i]), n
		}
	}
	if i := strings.LastIndex(s, " "); i >= 0 {
		if n, err := strconv.Atoi(s[i+1:]); err == nil && n > 0 {
			return strings.TrimSpace(s[:i]), n
		}
	}
	return s, DefaultAddressNumber
}

func leadingNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "nº"), "n°")
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// AddressFromAPI renders an address record into the form block.
func AddressFromAPI(r AddressRecord) form.Endereco {
	logradouro := strings.TrimSpace(r.Street)
	if r.Number > 0 {
		if logradouro != "" {
			logradouro += ", "
		}
		logradouro += strconv.Itoa(r.Number)
	}
	return form.Endereco{
		Logradouro: logradouro,
		Bairro:     r.District,
		Cidade:     r.City,
		UF:         r.UF,
		CEP:        deref(r.Zipcode),
	}
}
