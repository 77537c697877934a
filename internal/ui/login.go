package ui

import (
	"strings"

	"github.com/a-h/templ"
)

// LoginPage renders the sign-in form, or the sign-up form when data.SignUp is set.
func LoginPage(data LoginData) templ.Component {
	heading, subtitle, action, submit := "ENTRAR", "Acesso Administrativo", "/login", "ACESSAR"
	if data.SignUp {
		heading, subtitle, action, submit = "CADASTRAR", "Criar Nova Identidade", "/signup", "CRIAR CONTA"
	}

	body := component(func(m *markup) {
		m.raw(`<main class="center-screen"><div class="login-box"><section class="card corners">`)
		m.raw(`<header class="text-center login-head"><h1 class="title-xl">`, heading, `</h1><div class="rule"></div>`)
		m.raw(`<p class="upper muted tracking">`, subtitle, `</p></header>`)

		if data.Error != "" {
			m.raw(`<div class="alert alert-error shake">ERRO_SISTEMA: `)
			m.text(data.Error)
			m.raw(`</div>`)
		}
		m.render(Flash(data.Info, "info"))

		m.raw(`<form method="post"`)
		m.attr("action", action)
		m.raw(` class="stack">`)
		m.raw(`<label class="field"><span class="field-label">E-mail de Acesso</span>`)
		m.raw(`<input type="email" name="email" placeholder="seu@email.com"`)
		m.attr("value", data.Email)
		m.raw(` required></label>`)
		m.raw(`<label class="field"><span class="field-label">Senha de Acesso</span>`)
		m.raw(`<input type="password" name="password" placeholder="••••••••"></label>`)
		m.raw(`<button type="submit" class="btn btn-primary btn-block">`, submit, ` →</button></form>`)

		m.raw(`<div class="login-links upper bold small">`)
		if data.SignUp {
			m.raw(`<a href="/login">JÁ POSSUI CONTA? ENTRAR AGORA</a>`)
		} else {
			m.raw(`<a href="/login?mode=signup">NÃO TEM CONTA? CADASTRAR-SE</a>`)
			m.raw(`<div class="split faded"><a href="#">Esqueceu a senha?</a><a href="#">Ajuda?</a></div>`)
		}
		m.raw(`</div></section>`)

		m.raw(`<div class="palette"><span class="bg-zinc"></span><span class="bg-orange"></span><span class="bg-red"></span><span class="bg-blue"></span></div>`)
		m.raw(`<p class="text-center tiny upper muted">Sistema v2.0.4 · Conexão Segura</p>`)
		m.raw(`<form method="post" action="/theme" class="text-center"><button class="link tiny upper" type="submit">Alternar tema</button></form>`)
		m.raw(`</div></main>`)
	})
	return Layout(heading+" · RETRO_UI", data.Dark, body)
}

// ConfigPage renders the configuration-instructions screen.
func ConfigPage(data ConfigData) templ.Component {
	body := component(func(m *markup) {
		m.raw(`<main class="center-screen"><section class="card card-wide text-center">`)
		m.raw(`<h1 class="title-xl">Configuração Incompleta</h1>`)
		m.raw(`<p class="mono upper muted">Defina as variáveis do backend <strong>`)
		m.text(data.Backend)
		m.raw(`</strong> no ambiente de deploy.</p><div class="terminal">`)
		for _, setting := range data.Settings {
			m.raw(`<div>`)
			m.text(setting)
			m.raw(`=SEU_VALOR</div>`)
		}
		m.raw(`</div>`)
		if len(data.Missing) > 0 {
			m.raw(`<p class="mono upper small">Ausentes: `)
			m.text(strings.Join(data.Missing, ", "))
			m.raw(`</p>`)
		}
		m.raw(`</section></main>`)
	})
	return Layout("Configuração Incompleta", data.Dark, body)
}
