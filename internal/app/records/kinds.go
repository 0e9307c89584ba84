package records

import "github.com/roteiro-app/travel-planner-api/internal/domain"

type Document struct {
	Name       string `json:"nome" validate:"required"`
	Type       string `json:"tipo" validate:"required"`
	Number     string `json:"numero,omitempty"`
	ValidUntil string `json:"validade,omitempty"`
	Notes      string `json:"observacoes,omitempty"`
}

type EmergencyContact struct {
	Name         string `json:"nome" validate:"required"`
	Phone        string `json:"telefone" validate:"required"`
	Relationship string `json:"relacao,omitempty"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
}

type Insurance struct {
	Insurer      string `json:"seguradora" validate:"required"`
	PolicyNumber string `json:"numeroApolice" validate:"required"`
	Phone        string `json:"telefone,omitempty"`
	Start        string `json:"inicio,omitempty"`
	End          string `json:"fim,omitempty"`
	Coverage     string `json:"cobertura,omitempty"`
}

type Transport struct {
	Type        string `json:"tipo" validate:"required"`
	Date        string `json:"data" validate:"required"`
	Company     string `json:"empresa,omitempty"`
	Origin      string `json:"origem,omitempty"`
	Destination string `json:"destino,omitempty"`
	BookingCode string `json:"codigoReserva,omitempty"`
}

type PhotoNote struct {
	PhotoURI string `json:"fotoUri" validate:"required"`
	Title    string `json:"titulo,omitempty"`
	Note     string `json:"nota,omitempty"`
	Date     string `json:"data,omitempty"`
}

// newFields returns a pointer to the payload struct of kind, or nil for an unknown kind.
func newFields(kind domain.RecordKind) any {
	switch kind {
	case domain.RecordKindDocument:
		return &Document{}
	case domain.RecordKindEmergencyContact:
		return &EmergencyContact{}
	case domain.RecordKindInsurance:
		return &Insurance{}
	case domain.RecordKindTransport:
		return &Transport{}
	case domain.RecordKindPhotoNote:
		return &PhotoNote{}
	}
	return nil
}
