package intent

import (
	"regexp"
	"strconv"
	"strings"
)

type Type string

const (
	Empty       Type = "empty"
	Unknown     Type = "unknown"
	StartOrder  Type = "start_order"
	CloseOrder  Type = "close_order"
	SubmitOrder Type = "submit_order"
	RequestBill Type = "request_bill"
	AddItem     Type = "add_item"
	RemoveItem  Type = "remove_item"
)

// MaxQty bounds how many lines a single spoken request may add or remove.
const MaxQty = 20

type Intent struct {
	Type       Type    `json:"type"`
	Query      string  `json:"query,omitempty"`
	Qty        int     `json:"qty,omitempty"`
	MenuitemID uint    `json:"menuitem_id,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Quantity defaults to 1.
func (i Intent) Quantity() int {
	if i.Qty <= 0 {
		return 1
	}
	return i.Qty
}

// Patterns run against Normalize output, so apostrophes are spaces and
// accents are folded ("i'd" -> "i d", "añade" -> "anade").
var (
	billRe = regexp.MustCompile(`\b(bill|check|l addition|la note|il conto|la cuenta|pay|payer|pagare|pagar)\b`)

	closeRe = regexp.MustCompile(`\b(close|end|finish)\s+(\w+\s+){0,2}(order|tab)\b|\bfermer\s+(\w+\s+){0,2}commande\b|\bchiudi\s+(\w+\s+){0,2}ordine\b|\bcerrar\s+(\w+\s+){0,2}pedido\b`)

	submitRe = regexp.MustCompile(`\b(submit|send|place|confirm)\s+(\w+\s+){0,2}order\b|\b(envoyer|valider|confirmer)\s+(\w+\s+){0,2}commande\b|\b(invia|conferma)\s+(\w+\s+){0,2}ordine\b|\b(enviar|confirmar)\s+(\w+\s+){0,2}pedido\b|\bthat s (all|it)\b`)

	startRe = regexp.MustCompile(`\b(start|open|begin)\s+(\w+\s+){0,2}order\b|\bnew order\b|\b(commencer|ouvrir)\s+(\w+\s+){0,2}commande\b|\bnouvelle commande\b|\b(inizia|iniziare|apri)\s+(\w+\s+){0,2}ordine\b|\bnuovo ordine\b|\b(empezar|abrir|iniciar)\s+(\w+\s+){0,2}pedido\b|\bnuevo pedido\b`)

	removeRe = regexp.MustCompile(`\b(remove|delete|cancel|take off|take away|drop|retirer|retire|supprimer|supprime|enlever|enleve|togli|rimuovi|elimina|eliminar|quita|quitar|borra)\b\s*(.*)$`)

	addRe = regexp.MustCompile(`\b(add|i d like|i would like|i ll have|i ll take|i will have|i want|can i get|can i have|could i get|could i have|may i have|get me|give me|bring me|order|ajoute|ajouter|je voudrais|je veux|je prends|aggiungi|vorrei|voglio|prendo|anade|agrega|agregar|quiero|me gustaria|ponme)\b\s*(.*)$`)
)

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "un": 1, "une": 1, "uno": 1, "una": 1, "another": 1,
	"two": 2, "deux": 2, "due": 2, "dos": 2, "couple": 2,
	"three": 3, "trois": 3, "tre": 3, "tres": 3,
	"four": 4, "quatre": 4, "quattro": 4, "cuatro": 4,
	"five": 5, "cinq": 5, "cinque": 5, "cinco": 5,
	"six": 6, "sei": 6, "seis": 6,
	"seven": 7, "sept": 7, "sette": 7, "siete": 7,
	"eight": 8, "huit": 8, "otto": 8, "ocho": 8,
	"nine": 9, "neuf": 9, "nove": 9, "nueve": 9,
	"ten": 10, "dix": 10, "dieci": 10, "diez": 10,
}

// Words dropped from the front of an item query.
var fillers = map[string]bool{
	"to": true, "order": true, "have": true, "get": true, "me": true, "us": true,
	"the": true, "some": true, "of": true, "more": true, "please": true, "my": true,
	"le": true, "la": true, "les": true, "des": true, "du": true, "de": true,
	"il": true, "lo": true, "gli": true, "di": true, "del": true,
	"el": true, "los": true, "las": true, "unos": true, "unas": true,
}

// Parse classifies a transcript. Locale is advisory: every supported
// language (en, fr, it, es) is recognised regardless.
func Parse(transcript, locale string) Intent {
	n := Normalize(transcript)
	if n == "" {
		return Intent{Type: Empty}
	}

	switch {
	case closeRe.MatchString(n):
		return Intent{Type: CloseOrder}
	case submitRe.MatchString(n):
		return Intent{Type: SubmitOrder}
	case startRe.MatchString(n):
		return Intent{Type: StartOrder}
	case billRe.MatchString(n):
		return Intent{Type: RequestBill}
	}

	if m := removeRe.FindStringSubmatch(n); m != nil {
		if q, qty := itemPhrase(m[2]); q != "" {
			return Intent{Type: RemoveItem, Query: q, Qty: qty}
		}
	}
	if m := addRe.FindStringSubmatch(n); m != nil {
		if q, qty := itemPhrase(m[2]); q != "" {
			return Intent{Type: AddItem, Query: q, Qty: qty}
		}
	}
	return Intent{Type: Unknown}
}

// itemPhrase splits "to order two of the margherita" into ("margherita", 2).
func itemPhrase(rest string) (string, int) {
	words := strings.Fields(rest)
	qty := 0
	for len(words) > 0 {
		w := words[0]
		if n, err := strconv.Atoi(w); err == nil && qty == 0 {
			qty = n
		} else if n, ok := numberWords[w]; ok && qty == 0 {
			qty = n
		} else if !fillers[w] {
			break
		}
		words = words[1:]
	}
	if qty <= 0 {
		qty = 1
	}
	if qty > MaxQty {
		qty = MaxQty
	}
	return strings.Join(words, " "), qty
}
