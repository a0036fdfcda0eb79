package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	register(language.AmericanEnglish, map[string]string{
		"app.name":               "Warehouse",
		"title.page":             "%s | Warehouse",
		"nav.dashboard":          "Dashboard",
		"nav.admin":              "Administration",
		"nav.sign_in":            "Sign in",
		"nav.sign_out":           "Sign out",
		"landing.heading":        "Warehouse operations",
		"landing.tagline":        "Stock, locations, and people in one place.",
		"login.heading":          "Sign in",
		"login.body":             "Sign in through your organization's identity provider to continue.",
		"loading.heading":        "Checking your access",
		"loading.body":           "One moment while we confirm who you are.",
		"dashboard.heading":      "Dashboard",
		"dashboard.greeting":     "Welcome back, %s.",
		"dashboard.role":         "Signed in as %s.",
		"admin.heading":          "Administration",
		"admin.locations":        "Locations",
		"admin.users":            "Users",
		"admin.body":             "Manage warehouse locations and staff accounts.",
		"notice.access_denied":   "You do not have access to that page.",
		"role.admin":             "administrator",
		"role.warehouse_manager": "warehouse manager",
		"role.staff":             "staff",
		"error.title":            "Something went wrong",
		"error.not_found":        "This page does not exist.",
		"error.unavailable":      "The service is temporarily unavailable.",
		"error.internal":         "An unexpected error occurred.",
		"error.forbidden":        "This request was not sent from this site.",
	})
	register(language.BrazilianPortuguese, map[string]string{
		"app.name":               "Armazém",
		"title.page":             "%s | Armazém",
		"nav.dashboard":          "Painel",
		"nav.admin":              "Administração",
		"nav.sign_in":            "Entrar",
		"nav.sign_out":           "Sair",
		"landing.heading":        "Operações do armazém",
		"landing.tagline":        "Estoque, locais e pessoas em um só lugar.",
		"login.heading":          "Entrar",
		"login.body":             "Entre pelo provedor de identidade da sua organização para continuar.",
		"loading.heading":        "Verificando seu acesso",
		"loading.body":           "Um momento enquanto confirmamos quem você é.",
		"dashboard.heading":      "Painel",
		"dashboard.greeting":     "Bem-vindo de volta, %s.",
		"dashboard.role":         "Conectado como %s.",
		"admin.heading":          "Administração",
		"admin.locations":        "Locais",
		"admin.users":            "Usuários",
		"admin.body":             "Gerencie locais do armazém e contas da equipe.",
		"notice.access_denied":   "Você não tem acesso a essa página.",
		"role.admin":             "administrador",
		"role.warehouse_manager": "gerente de armazém",
		"role.staff":             "equipe",
		"error.title":            "Algo deu errado",
		"error.not_found":        "Esta página não existe.",
		"error.unavailable":      "O serviço está temporariamente indisponível.",
		"error.internal":         "Ocorreu um erro inesperado.",
		"error.forbidden":        "Esta solicitação não foi enviada por este site.",
	})
}

func register(tag language.Tag, entries map[string]string) {
	for key, value := range entries {
		_ = message.SetString(tag, key, value)
	}
}
