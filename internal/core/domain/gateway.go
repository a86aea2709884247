package domain

// User é um registro do diretório consultado pela rota de perfil.
type User struct {
	ID       int
	Username string
	Email    string
	Bio      string
}

// ProfileView é o contexto entregue ao renderer de templates.
type ProfileView struct {
	Username string
	Bio      string
}

// FetchResult é a resposta crua obtida pelo proxy de fetch.
type FetchResult struct {
	URL        string
	StatusCode int
	Body       []byte
}

// DataEnvelope é o corpo devolvido pelo serviço interno de payload.
type DataEnvelope struct {
	Data     string `json:"data"`
	Encoding string `json:"encoding"`
	Message  string `json:"message"`
}
