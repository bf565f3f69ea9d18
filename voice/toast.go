package voice

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type MessageKey int

const (
	MsgNothingHeard MessageKey = iota
	MsgNotUnderstood
	MsgStartingOrder
	MsgCannotStart
	MsgClosingOrder
	MsgNoOrderToClose
	MsgOrderClosed
	MsgMissingContext
	MsgSubmitting
	MsgCannotSubmit
	MsgRequestingBill
	MsgCannotBill
	MsgStartFirst
	MsgNoMatch
	MsgAdded
	MsgNoItems
	MsgRemoved
	MsgNothingToRemove
	MsgFailed
)

var messages = map[string]map[MessageKey]string{
	"en": {
		MsgNothingHeard:    "I did not hear anything.",
		MsgNotUnderstood:   "Sorry, I didn't understand: %s",
		MsgStartingOrder:   "Starting order…",
		MsgCannotStart:     "Cannot start an order on this page.",
		MsgClosingOrder:    "Closing order…",
		MsgNoOrderToClose:  "No active order to close.",
		MsgOrderClosed:     "Order closed.",
		MsgMissingContext:  "Missing context. Please refresh the menu.",
		MsgSubmitting:      "Submitting order…",
		MsgCannotSubmit:    "Cannot submit order yet.",
		MsgRequestingBill:  "Requesting bill…",
		MsgCannotBill:      "Cannot request bill yet.",
		MsgStartFirst:      "Please start an order first, then try again.",
		MsgNoMatch:         "Couldn't find an item matching: %s",
		MsgAdded:           "Added %d item(s).",
		MsgNoItems:         "No items to remove.",
		MsgRemoved:         "Removed %d item(s).",
		MsgNothingToRemove: "No matching item to remove.",
		MsgFailed:          "Voice command failed. Please try again.",
	},
	"fr": {
		MsgNothingHeard:    "Je n'ai rien entendu.",
		MsgNotUnderstood:   "Désolé, je n'ai pas compris : %s",
		MsgStartingOrder:   "Ouverture de la commande…",
		MsgCannotStart:     "Impossible de commencer une commande sur cette page.",
		MsgClosingOrder:    "Clôture de la commande…",
		MsgNoOrderToClose:  "Aucune commande active à clôturer.",
		MsgOrderClosed:     "Commande clôturée.",
		MsgMissingContext:  "Contexte manquant. Veuillez actualiser le menu.",
		MsgSubmitting:      "Envoi de la commande…",
		MsgCannotSubmit:    "Impossible d'envoyer la commande pour le moment.",
		MsgRequestingBill:  "Demande de l'addition…",
		MsgCannotBill:      "Impossible de demander l'addition pour le moment.",
		MsgStartFirst:      "Veuillez d'abord commencer une commande, puis réessayer.",
		MsgNoMatch:         "Aucun plat ne correspond à : %s",
		MsgAdded:           "%d article(s) ajouté(s).",
		MsgNoItems:         "Aucun article à retirer.",
		MsgRemoved:         "%d article(s) retiré(s).",
		MsgNothingToRemove: "Aucun article correspondant à retirer.",
		MsgFailed:          "La commande vocale a échoué. Veuillez réessayer.",
	},
	"it": {
		MsgNothingHeard:    "Non ho sentito nulla.",
		MsgNotUnderstood:   "Scusa, non ho capito: %s",
		MsgStartingOrder:   "Apertura dell'ordine…",
		MsgCannotStart:     "Impossibile iniziare un ordine in questa pagina.",
		MsgClosingOrder:    "Chiusura dell'ordine…",
		MsgNoOrderToClose:  "Nessun ordine attivo da chiudere.",
		MsgOrderClosed:     "Ordine chiuso.",
		MsgMissingContext:  "Contesto mancante. Aggiorna il menu.",
		MsgSubmitting:      "Invio dell'ordine…",
		MsgCannotSubmit:    "Non è ancora possibile inviare l'ordine.",
		MsgRequestingBill:  "Richiesta del conto…",
		MsgCannotBill:      "Non è ancora possibile chiedere il conto.",
		MsgStartFirst:      "Inizia prima un ordine, poi riprova.",
		MsgNoMatch:         "Nessun piatto corrisponde a: %s",
		MsgAdded:           "Aggiunti %d articoli.",
		MsgNoItems:         "Nessun articolo da rimuovere.",
		MsgRemoved:         "Rimossi %d articoli.",
		MsgNothingToRemove: "Nessun articolo corrispondente da rimuovere.",
		MsgFailed:          "Comando vocale non riuscito. Riprova.",
	},
	"es": {
		MsgNothingHeard:    "No he oído nada.",
		MsgNotUnderstood:   "Lo siento, no he entendido: %s",
		MsgStartingOrder:   "Abriendo el pedido…",
		MsgCannotStart:     "No se puede iniciar un pedido en esta página.",
		MsgClosingOrder:    "Cerrando el pedido…",
		MsgNoOrderToClose:  "No hay ningún pedido activo que cerrar.",
		MsgOrderClosed:     "Pedido cerrado.",
		MsgMissingContext:  "Falta contexto. Actualiza el menú.",
		MsgSubmitting:      "Enviando el pedido…",
		MsgCannotSubmit:    "Todavía no se puede enviar el pedido.",
		MsgRequestingBill:  "Pidiendo la cuenta…",
		MsgCannotBill:      "Todavía no se puede pedir la cuenta.",
		MsgStartFirst:      "Primero inicia un pedido y vuelve a intentarlo.",
		MsgNoMatch:         "No encontré ningún plato que coincida con: %s",
		MsgAdded:           "Añadido(s) %d artículo(s).",
		MsgNoItems:         "No hay artículos que quitar.",
		MsgRemoved:         "Quitado(s) %d artículo(s).",
		MsgNothingToRemove: "No hay ningún artículo que coincida para quitar.",
		MsgFailed:          "El comando de voz ha fallado. Inténtalo de nuevo.",
	},
}

// Language reduces a locale such as "fr-CA" or "it_IT" to a supported
// language, defaulting to English.
func Language(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(l, "-_"); i >= 0 {
		l = l[:i]
	}
	if _, ok := messages[l]; ok {
		return l
	}
	return "en"
}

// Message renders key in the given locale.
func Message(locale string, key MessageKey, args ...any) string {
	tmpl, ok := messages[Language(locale)][key]
	if !ok {
		tmpl = messages["en"][key]
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Display shows and hides the toast text.
type Display interface {
	ShowToast(msg string)
	HideToast()
}

// Toaster shows one localized message at a time and hides it after TTL.
type Toaster struct {
	display Display
	locale  string
	ttl     time.Duration

	mu    sync.Mutex
	timer *time.Timer
	last  string
}

func NewToaster(d Display, locale string, ttl time.Duration) *Toaster {
	if ttl <= 0 {
		ttl = 4500 * time.Millisecond
	}
	return &Toaster{display: d, locale: locale, ttl: ttl}
}

func (t *Toaster) Show(key MessageKey, args ...any) string {
	msg := Message(t.locale, key, args...)
	t.mu.Lock()
	t.last = msg
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.ttl, t.hide)
	t.mu.Unlock()

	if t.display != nil {
		t.display.ShowToast(msg)
	}
	return msg
}

func (t *Toaster) hide() {
	if t.display != nil {
		t.display.HideToast()
	}
}

// Last is the most recent message shown.
func (t *Toaster) Last() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

func (t *Toaster) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
}
