package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"plainmail/internal/config"
	"plainmail/internal/credential"
	"plainmail/internal/keys"
	"plainmail/internal/theme"
)

// Mode represents the current state of the settings view.
type Mode int

const (
	ModeForm   Mode = iota // Editing the settings form
	ModeSaving             // Persisting config + credentials
)

// DoneMsg signals the settings view should close. Saved reports
// whether a new configuration was written.
type DoneMsg struct {
	Saved bool
	Cfg   *config.AppConfig
}

// savedInternalMsg is sent after the config and credentials are
// persisted.
type savedInternalMsg struct {
	cfg *config.AppConfig
	err error
}

// Model is the Bubble Tea model for the account settings form.
type Model struct {
	mode Mode
	form *huh.Form

	configPath string

	// Form field values (huh binds to these)
	formIMAPHost     string
	formIMAPPort     string
	formIMAPSecurity string
	formSMTPHost     string
	formSMTPPort     string
	formSMTPSecurity string
	formUsername     string
	formPassword     string
	formName         string
	formEmail        string
	formEditor       string

	statusMsg string
	spinner   spinner.Model

	keys          *keys.KeyMap
	width, height int
}

// New creates a settings view model prefilled from cfg. The password
// is never prefilled; leaving it empty keeps the stored one.
func New(cfg *config.AppConfig, configPath string, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		mode:       ModeForm,
		configPath: configPath,
		keys:       k,
		spinner:    sp,
		width:      width,
		height:     height,

		formIMAPHost:     cfg.IMAP.Host,
		formIMAPPort:     cfg.IMAP.Port,
		formIMAPSecurity: cfg.IMAP.Security,
		formSMTPHost:     cfg.SMTP.Host,
		formSMTPPort:     cfg.SMTP.Port,
		formSMTPSecurity: cfg.SMTP.Security,
		formUsername:     cfg.IMAP.Username,
		formName:         cfg.User.Name,
		formEmail:        cfg.User.Email,
		formEditor:       cfg.Editor,
	}
	m.form = m.buildForm()
	return m
}

// Init starts the settings form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

func (m *Model) buildForm() *huh.Form {
	securityOptions := []huh.Option[string]{
		huh.NewOption("TLS (implicit)", "tls"),
		huh.NewOption("STARTTLS", "starttls"),
		huh.NewOption("None (insecure)", "none"),
	}

	// Keys let save() read the completed values back out of the form;
	// the bound fields only provide the initial values.
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("imap_host").
				Title("IMAP Host").
				Placeholder("imap.example.com").
				Value(&m.formIMAPHost).
				Validate(validateRequired("IMAP host")),
			huh.NewInput().
				Key("imap_port").
				Title("IMAP Port").
				Placeholder("993").
				Value(&m.formIMAPPort).
				Validate(validatePort),
			huh.NewSelect[string]().
				Key("imap_security").
				Title("IMAP Security").
				Options(securityOptions...).
				Value(&m.formIMAPSecurity),
			huh.NewInput().
				Key("smtp_host").
				Title("SMTP Host").
				Placeholder("smtp.example.com").
				Value(&m.formSMTPHost).
				Validate(validateRequired("SMTP host")),
			huh.NewInput().
				Key("smtp_port").
				Title("SMTP Port").
				Placeholder("465").
				Value(&m.formSMTPPort).
				Validate(validatePort),
			huh.NewSelect[string]().
				Key("smtp_security").
				Title("SMTP Security").
				Options(securityOptions...).
				Value(&m.formSMTPSecurity),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("username").
				Title("Username").
				Description("Account username for both servers").
				Placeholder("user@example.com").
				Value(&m.formUsername).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Key("password").
				Title("Password").
				Description("Stored in the system keyring; leave empty to keep the current one").
				EchoMode(huh.EchoModePassword).
				Value(&m.formPassword),
			huh.NewInput().
				Key("name").
				Title("Display Name").
				Placeholder("Ada Lovelace").
				Value(&m.formName),
			huh.NewInput().
				Key("email").
				Title("Email Address").
				Description("Sender address on outgoing mail").
				Placeholder("ada@example.com").
				Value(&m.formEmail).
				Validate(validateEmail),
			huh.NewInput().
				Key("editor").
				Title("Editor").
				Description("External editor for composing; empty uses $EDITOR").
				Placeholder("vi").
				Value(&m.formEditor),
		),
	).WithWidth(m.formWidth())
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedInternalMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving settings: %v", msg.err)
			m.mode = ModeForm
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		return m, func() tea.Msg {
			return DoneMsg{Saved: true, Cfg: msg.cfg}
		}

	case spinner.TickMsg:
		if m.mode == ModeSaving {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.mode == ModeSaving {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.mode = ModeSaving
		return m, tea.Batch(m.spinner.Tick, m.save())
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg {
			return DoneMsg{Saved: false}
		}
	}

	return m, cmd
}

// save persists the YAML config and, when a new password was entered,
// the keyring entries.
func (m Model) save() tea.Cmd {
	username := strings.TrimSpace(m.form.GetString("username"))
	cfg := &config.AppConfig{
		IMAP: config.ServerConfig{
			Host:     strings.TrimSpace(m.form.GetString("imap_host")),
			Port:     strings.TrimSpace(m.form.GetString("imap_port")),
			Security: m.form.GetString("imap_security"),
			Username: username,
		},
		SMTP: config.ServerConfig{
			Host:     strings.TrimSpace(m.form.GetString("smtp_host")),
			Port:     strings.TrimSpace(m.form.GetString("smtp_port")),
			Security: m.form.GetString("smtp_security"),
			Username: username,
		},
		User: config.UserConfig{
			Name:  strings.TrimSpace(m.form.GetString("name")),
			Email: strings.TrimSpace(m.form.GetString("email")),
		},
		Editor: strings.TrimSpace(m.form.GetString("editor")),
	}
	password := m.form.GetString("password")
	path := m.configPath

	return func() tea.Msg {
		if password != "" {
			if err := credential.Set(credential.IMAPPassword, password); err != nil {
				return savedInternalMsg{err: err}
			}
			if err := credential.Set(credential.SMTPPassword, password); err != nil {
				return savedInternalMsg{err: err}
			}
		}
		if err := config.Save(path, cfg); err != nil {
			return savedInternalMsg{err: err}
		}
		return savedInternalMsg{cfg: cfg}
	}
}

// View renders the settings view.
func (m Model) View() string {
	if m.mode == ModeSaving {
		return lipgloss.NewStyle().
			Padding(1, 2).
			Width(m.width).
			Height(m.height).
			Render(fmt.Sprintf("%s Saving settings...", m.spinner.View()))
	}

	var b strings.Builder
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	b.WriteString(titleStyle.Render("Account Settings"))
	b.WriteString("\n\n")
	b.WriteString(m.form.View())

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.ErrorStyle.Render(m.statusMsg))
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("port is required")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("port must be a number")
		}
	}
	return nil
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("email address is required")
	}
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return fmt.Errorf("invalid email address")
	}
	return nil
}
