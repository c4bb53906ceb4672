package web

import (
	"errors"

	"github.com/erazemk/auberge/internal/apiclient"
	"github.com/erazemk/auberge/internal/chat"
	"github.com/erazemk/auberge/internal/inventory"
	"github.com/erazemk/auberge/internal/orders"
	"github.com/erazemk/auberge/internal/projects"
	"github.com/erazemk/auberge/internal/reservations"
	"github.com/erazemk/auberge/internal/uploads"
)

var errorTexts = []struct {
	err  error
	text string
}{
	{chat.ErrEmptyMessage, "Le message est vide."},
	{chat.ErrNoConversation, "Aucune conversation sélectionnée."},
	{chat.ErrSendInProgress, "Un message est déjà en cours d'envoi."},
	{projects.ErrProjectNotFound, "Projet introuvable."},
	{projects.ErrMilestoneNotFound, "Jalon introuvable."},
	{projects.ErrInvalidStatus, "Statut de projet invalide."},
	{inventory.ErrZeroDelta, "La quantité doit être différente de zéro."},
	{inventory.ErrNegativeStock, "Le stock ne peut pas devenir négatif."},
	{inventory.ErrProductNotFound, "Produit introuvable."},
	{orders.ErrInvalidStatus, "Statut de commande invalide."},
	{orders.ErrEmptyTracking, "Saisissez un numéro de suivi."},
	{reservations.ErrInvalidStatus, "Statut de réservation invalide."},
	{uploads.ErrEmpty, "Le fichier est vide."},
	{uploads.ErrTooLarge, "Le fichier est trop volumineux (10 Mo max)."},
	{uploads.ErrUnsupported, "Seules les images et les PDF sont acceptés."},
}

// errorText turns a mutation error into the message flashed to the user.
func errorText(err error) string {
	for _, e := range errorTexts {
		if errors.Is(err, e.err) {
			return e.text
		}
	}
	return apiclient.Message(err)
}
