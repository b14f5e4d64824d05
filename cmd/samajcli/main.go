// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// samajcli is the terminal client for the community platform. Anonymous
// visitors get a short blog preview before the gate locks browsing;
// signing in with a complete profile unlocks everything.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samajhub/samaj-go/internal/cascade"
	"github.com/samajhub/samaj-go/internal/client"
	"github.com/samajhub/samaj-go/internal/gate"
	"github.com/samajhub/samaj-go/internal/i18n"
	"github.com/samajhub/samaj-go/internal/model"
	"github.com/samajhub/samaj-go/internal/session"
	"github.com/samajhub/samaj-go/internal/tokenstore"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

const requestTimeout = 15 * time.Second

type app struct {
	in   *bufio.Scanner
	out  io.Writer
	api  *client.Client
	sess *session.Manager
	gate *gate.Gate

	mu   sync.RWMutex
	lang string
}

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "API server base URL")
	langFlag := flag.String("lang", "", "UI language (en, hi); defaults to $LANG")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("samajcli %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if err := i18n.Init(logger); err != nil {
		slog.Error("loading translations", "error", err)
		os.Exit(1)
	}

	lang := *langFlag
	if lang == "" {
		lang = i18n.MatchLanguage(os.Getenv("LANG"))
	}
	if !i18n.IsSupported(lang) {
		lang = i18n.DefaultLanguage
	}

	tokens, err := tokenstore.New()
	if err != nil {
		slog.Error("opening token store", "error", err)
		os.Exit(1)
	}

	api := client.New(*serverURL, tokens)
	a := &app{
		in:   bufio.NewScanner(os.Stdin),
		out:  os.Stdout,
		api:  api,
		sess: session.NewManager(api, tokens),
		lang: lang,
	}
	a.gate = gate.New(gate.RealClock(), gate.WithOnChange(a.gateChanged))

	a.run()
}

// T translates a key in the current language.
func (a *app) T(key string, args ...any) string {
	a.mu.RLock()
	lang := a.lang
	a.mu.RUnlock()
	return i18n.T(lang, key, args...)
}

func (a *app) setLang(lang string) {
	a.mu.Lock()
	a.lang = lang
	a.mu.Unlock()
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

// prompt reads one trimmed line after printing a label.
func (a *app) prompt(label string) string {
	a.printf("%s: ", label)
	if !a.in.Scan() {
		return ""
	}
	return strings.TrimSpace(a.in.Text())
}

// gateChanged announces timer-driven gate transitions.
func (a *app) gateChanged(s gate.State) {
	switch s {
	case gate.Expired:
		a.printf("\n%s\n", a.T("gate.expired"))
	case gate.Frozen:
		a.printf("\n%s\n", a.T("gate.frozen"))
	case gate.FrozenForIncompleteProfile:
		a.printf("\n%s\n", a.T("gate.frozen_profile"))
	}
}

func (a *app) run() {
	a.printf("%s\n\n", a.T("app.title"))

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	if a.sess.Bootstrap() {
		if user, err := a.sess.Validate(ctx); err == nil {
			a.gate.SetUser(user)
		} else if client.IsAuthError(err) {
			a.gate.Start()
		} else {
			a.printf("%s\n", a.T("common.error", err.Error()))
			a.gate.Start()
		}
	} else {
		a.gate.Start()
	}
	cancel()

	for {
		a.printMenu()
		choice := a.prompt(">")
		switch choice {
		case "1":
			a.browse("")
		case "2":
			a.browse(a.prompt(a.T("blog.search")))
		case "3":
			if a.sess.Authenticated() {
				a.showProfile()
			} else {
				a.login()
			}
		case "4":
			if a.sess.Authenticated() {
				a.logout()
			} else {
				a.register()
			}
		case "5":
			a.storePhone()
		case "6":
			a.completeProfile()
		case "7":
			a.chooseLanguage()
		case "q", "":
			a.gate.Stop()
			return
		}
	}
}

func (a *app) printMenu() {
	if a.gate.State() == gate.Browsing {
		a.printf("\n%s\n", a.T("gate.preview", a.gate.SecondsRemaining()))
	} else {
		a.printf("\n")
	}
	a.printf("1. %s\n", a.T("menu.browse"))
	a.printf("2. %s\n", a.T("blog.search"))
	if a.sess.Authenticated() {
		a.printf("3. %s\n", a.T("menu.profile"))
		a.printf("4. %s\n", a.T("menu.logout"))
	} else {
		a.printf("3. %s\n", a.T("menu.login"))
		a.printf("4. %s\n", a.T("menu.register"))
		a.printf("5. %s\n", a.T("menu.phone"))
		a.printf("6. %s\n", a.T("menu.complete_profile"))
	}
	a.printf("7. %s\n", a.T("menu.language"))
	a.printf("q. %s\n", a.T("menu.quit"))
}

// locked blocks gated actions while the preview is over.
func (a *app) locked() bool {
	switch a.gate.State() {
	case gate.Frozen:
		a.printf("%s\n", a.T("gate.frozen"))
		return true
	case gate.FrozenForIncompleteProfile:
		a.printf("%s\n", a.T("gate.frozen_profile"))
		return true
	}
	return false
}

func (a *app) browse(search string) {
	if a.locked() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	posts, _, err := a.api.ListPosts(ctx, 1, 10, search)
	if err != nil {
		a.printf("%s\n", a.T("common.error", err.Error()))
		return
	}
	if len(posts) == 0 {
		a.printf("%s\n", a.T("blog.no_posts"))
		return
	}

	for i, post := range posts {
		a.printf("%d. %s (%s)\n", i+1, post.Title, a.T("blog.views", post.ViewCount))
	}

	choice := a.prompt(a.T("common.back"))
	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(posts) {
		return
	}
	a.readPost(posts[idx-1].ID)
}

func (a *app) readPost(id int64) {
	if a.locked() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	post, err := a.api.GetPost(ctx, id)
	if err != nil {
		a.printf("%s\n", a.T("common.error", err.Error()))
		return
	}

	a.printf("\n%s\n", post.Title)
	a.printf("%s\n\n", a.T("blog.views", post.ViewCount))
	a.printf("%s\n", post.Content)
}

func (a *app) login() {
	id := a.prompt(a.T("auth.email") + " / " + a.T("auth.mobile"))
	password := a.prompt(a.T("auth.password"))

	email, mobile := "", ""
	if strings.Contains(id, "@") {
		email = id
	} else {
		mobile = id
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	user, err := a.sess.Login(ctx, email, mobile, password)
	if err != nil {
		a.printf("%s\n", a.T("common.error", err.Error()))
		return
	}
	a.printf("%s\n", a.T("auth.login_success"))
	a.gate.SetUser(user)
}

func (a *app) register() {
	email := a.prompt(a.T("auth.email"))
	mobile := a.prompt(a.T("auth.mobile"))
	password := a.prompt(a.T("auth.password"))
	confirm := a.prompt(a.T("auth.confirm_password"))

	// Validate locally before any request goes out.
	if password != confirm {
		a.printf("%s\n", a.T("auth.password_mismatch"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	user, err := a.sess.Register(ctx, email, mobile, password)
	if err != nil {
		a.printf("%s\n", a.T("common.error", err.Error()))
		return
	}
	a.printf("%s\n", a.T("auth.register_success"))
	a.gate.SetUser(user)
}

func (a *app) storePhone() {
	mobile := a.prompt(a.T("auth.mobile"))
	if mobile == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if _, err := a.sess.StorePhone(ctx, mobile); err != nil {
		a.printf("%s\n", a.T("common.error", err.Error()))
		return
	}
	// A stored phone is not a sign-in; the preview keeps counting.
	a.printf("%s\n", a.T("auth.phone_stored"))
}

func (a *app) completeProfile() {
	mobile := a.prompt(a.T("auth.mobile"))
	email := a.prompt(a.T("auth.email"))
	password := a.prompt(a.T("auth.password"))
	confirm := a.prompt(a.T("auth.confirm_password"))
	if password != confirm {
		a.printf("%s\n", a.T("auth.password_mismatch"))
		return
	}

	profile, ok := a.promptProfile()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	user, err := a.sess.CompleteProfile(ctx, client.CompleteProfileParams{
		Mobile:        mobile,
		Email:         email,
		Password:      password,
		ProfileParams: profile,
	})
	if err != nil {
		a.printf("%s\n", a.T("common.error", err.Error()))
		return
	}
	a.printf("%s\n", a.T("profile.saved"))
	a.gate.SetUser(user)
}

// promptProfile collects the full profile, walking the location
// hierarchy with the cascading selector.
func (a *app) promptProfile() (client.ProfileParams, bool) {
	var params client.ProfileParams

	params.FirstName = a.prompt(a.T("profile.first_name"))
	params.LastName = a.prompt(a.T("profile.last_name"))
	params.DOB = a.prompt(a.T("profile.dob"))

	a.printf("%s:\n1. MALE\n2. FEMALE\n3. OTHER\n", a.T("profile.gender"))
	switch a.prompt(">") {
	case "1":
		params.Gender = model.GenderMale
	case "2":
		params.Gender = model.GenderFemale
	default:
		params.Gender = model.GenderOther
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	selector := cascade.NewSelector(a.api)
	states, err := selector.LoadStates(ctx)
	if err != nil {
		a.printf("%s\n", a.T("common.error", err.Error()))
		return params, false
	}

	a.printf("%s:\n", a.T("profile.state"))
	for i, state := range states {
		a.printf("%d. %s\n", i+1, state.Name)
	}
	idx, err := strconv.Atoi(a.prompt(">"))
	if err != nil || idx < 1 || idx > len(states) {
		return params, false
	}
	districts, err := selector.SelectState(ctx, states[idx-1].ID)
	if err != nil {
		a.printf("%s\n", a.T("common.error", err.Error()))
		return params, false
	}

	a.printf("%s:\n", a.T("profile.district"))
	for i, district := range districts {
		a.printf("%d. %s\n", i+1, district.Name)
	}
	idx, err = strconv.Atoi(a.prompt(">"))
	if err != nil || idx < 1 || idx > len(districts) {
		return params, false
	}
	tahsils, err := selector.SelectDistrict(ctx, districts[idx-1].ID)
	if err != nil {
		a.printf("%s\n", a.T("common.error", err.Error()))
		return params, false
	}

	a.printf("%s:\n", a.T("profile.tahsil"))
	for i, tahsil := range tahsils {
		a.printf("%d. %s\n", i+1, tahsil.Name)
	}
	idx, err = strconv.Atoi(a.prompt(">"))
	if err != nil || idx < 1 || idx > len(tahsils) {
		return params, false
	}
	if err := selector.SelectTahsil(tahsils[idx-1].ID); err != nil {
		a.printf("%s\n", a.T("common.error", err.Error()))
		return params, false
	}

	selection := selector.Selection()
	params.StateID = &selection.StateID
	params.DistrictID = &selection.DistrictID
	params.TahsilID = &selection.TahsilID

	professions, err := a.api.Professions(ctx)
	if err != nil {
		a.printf("%s\n", a.T("common.error", err.Error()))
		return params, false
	}
	a.printf("%s:\n", a.T("profile.profession"))
	for i, profession := range professions {
		a.printf("%d. %s\n", i+1, profession.EmployeeType)
	}
	idx, err = strconv.Atoi(a.prompt(">"))
	if err != nil || idx < 1 || idx > len(professions) {
		return params, false
	}
	params.ProfessionID = &professions[idx-1].ID

	params.AddressLine = a.prompt(a.T("profile.address"))
	return params, true
}

func (a *app) showProfile() {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	user, err := a.sess.Validate(ctx)
	if err != nil {
		a.printf("%s\n", a.T("common.error", err.Error()))
		if client.IsAuthError(err) {
			a.gate.SetUser(nil)
			a.gate.Start()
		}
		return
	}

	a.printf("\n%s: %s\n", a.T("auth.mobile"), user.Mobile)
	if user.Email.Valid {
		a.printf("%s: %s\n", a.T("auth.email"), user.Email.String)
	}
	if user.Profile != nil {
		p := user.Profile
		a.printf("%s: %s\n", a.T("profile.first_name"), p.FirstName)
		a.printf("%s: %s\n", a.T("profile.last_name"), p.LastName)
		if p.StateName.Valid {
			a.printf("%s: %s\n", a.T("profile.state"), p.StateName.String)
		}
		if p.DistrictName.Valid {
			a.printf("%s: %s\n", a.T("profile.district"), p.DistrictName.String)
		}
		if p.TahsilName.Valid {
			a.printf("%s: %s\n", a.T("profile.tahsil"), p.TahsilName.String)
		}
		if p.ProfessionType.Valid {
			a.printf("%s: %s\n", a.T("profile.profession"), p.ProfessionType.String)
		}
	}
	a.gate.SetUser(user)
}

func (a *app) logout() {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	a.sess.Logout(ctx)
	a.printf("%s\n", a.T("auth.logged_out"))
	a.gate.SetUser(nil)
	a.gate.Start()
}

func (a *app) chooseLanguage() {
	languages := i18n.GetSupportedLanguages()
	a.printf("%s:\n", a.T("menu.language"))
	for i, lang := range languages {
		a.printf("%d. %s\n", i+1, lang)
	}
	idx, err := strconv.Atoi(a.prompt(">"))
	if err != nil || idx < 1 || idx > len(languages) {
		return
	}
	a.setLang(languages[idx-1])
}
