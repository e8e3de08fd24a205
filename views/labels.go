package views

import "github.com/eringen/spacetraveling/datefmt"

// DatePattern is the listing and byline date format.
const DatePattern = "d MMM y"

// Labels are the user-facing strings of one locale.
type Labels struct {
	LoadMore      string
	LoadingMore   string
	LoadMoreError string
	Retry         string
	Loading       string
	PreviousPost  string
	NextPost      string
	// Edited is a date pattern with quoted literals.
	Edited       string
	ReadTime     string
	NotFound     string
	NotFoundBody string
	BackHome     string
	Newer        string
	Older        string
	PageTitle    string
}

var ptBR = Labels{
	LoadMore:      "Carregar mais posts",
	LoadingMore:   "Carregando...",
	LoadMoreError: "Não foi possível carregar mais posts.",
	Retry:         "Tentar novamente",
	Loading:       "Carregando...",
	PreviousPost:  "Post anterior",
	NextPost:      "Próximo post",
	Edited:        "'* editado em' d MMM y' às' HH:mm",
	ReadTime:      "%d min",
	NotFound:      "Página não encontrada",
	NotFoundBody:  "O conteúdo que você procura não existe ou foi removido.",
	BackHome:      "Voltar para o início",
	Newer:         "Posts mais recentes",
	Older:         "Posts mais antigos",
	PageTitle:     "Página %d",
}

var enUS = Labels{
	LoadMore:      "Load more posts",
	LoadingMore:   "Loading...",
	LoadMoreError: "Could not load more posts.",
	Retry:         "Try again",
	Loading:       "Loading...",
	PreviousPost:  "Previous post",
	NextPost:      "Next post",
	Edited:        "'* edited on' d MMM y' at' HH:mm",
	ReadTime:      "%d min",
	NotFound:      "Page not found",
	NotFoundBody:  "The page you are looking for does not exist or was removed.",
	BackHome:      "Back to home",
	Newer:         "Newer posts",
	Older:         "Older posts",
	PageTitle:     "Page %d",
}

// LabelsFor returns the strings of loc, falling back to Brazilian
// Portuguese.
func LabelsFor(loc datefmt.Locale) Labels {
	if loc.Tag == datefmt.EnUS.Tag {
		return enUS
	}
	return ptBR
}
