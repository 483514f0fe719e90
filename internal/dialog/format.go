package dialog

import (
	"strconv"
	"strings"

	"github.com/iLeonidze/OXPAHA28-bot/internal/config"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
)

// DefaultDescription stands in for a report without a description.
const DefaultDescription = "не указано"

var markdownV2Escaper = strings.NewReplacer(
	`\`, `\\`,
	"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`,
	"=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

// EscapeMarkdownV2 escapes s for literal display in a MarkdownV2 message.
func EscapeMarkdownV2(s string) string {
	return markdownV2Escaper.Replace(s)
}

// Formatter renders reports and links. Templates named request, success and
// duplicate are MarkdownV2; substituted values are escaped.
type Formatter struct {
	cfg *config.Config
}

func NewFormatter(cfg *config.Config) *Formatter {
	return &Formatter{cfg: cfg}
}

// Report renders the moderation channel post for answers written by author.
func (f *Formatter) Report(answers domain.Answers, author domain.Sender) string {
	category := answers.Text(domain.FieldCategory)
	area := answers.Text(domain.FieldArea)
	if f.cfg.IsFireCategory(category) {
		area = f.cfg.Routing.FireArea
	}
	description := answers.Text(domain.FieldDescription)
	if description == "" {
		description = DefaultDescription
	}

	r := strings.NewReplacer(
		"{type}", EscapeMarkdownV2(category),
		"{area}", EscapeMarkdownV2(area),
		"{address}", f.Address(answers),
		"{username}", Mention(author),
		"{description}", EscapeMarkdownV2(description),
	)
	msg := r.Replace(f.cfg.Template(config.TemplateRequest))
	msg = strings.ReplaceAll(msg, "\n ", "\n")
	return strings.TrimRight(msg, "\n")
}

// Preview is the confirm step text: the escaped confirm prompt followed by
// the report without its last (author) line.
func (f *Formatter) Preview(answers domain.Answers, author domain.Sender) string {
	lines := strings.Split(f.Report(answers, author), "\n")
	if len(lines) > 1 {
		lines = lines[:len(lines)-1]
	}
	return EscapeMarkdownV2(f.cfg.Template(config.TemplateConfirmRequest)) + "\n\n" + strings.Join(lines, "\n")
}

// Address renders the escaped address line from the location answers.
func (f *Formatter) Address(answers domain.Answers) string {
	var b strings.Builder
	b.WriteString(`ул\. `)
	b.WriteString(EscapeMarkdownV2(answers.Text(domain.FieldStreet)))
	b.WriteString(", дом ")
	b.WriteString(EscapeMarkdownV2(answers.Text(domain.FieldHouse)))

	parts := []struct {
		field  domain.FieldKey
		prefix string
	}{
		{domain.FieldSection, ", секция "},
		{domain.FieldFloor, ", этаж "},
		{domain.FieldFlat, `, кв\. `},
		{domain.FieldStoreroom, `, кл\. `},
		{domain.FieldParking, `, мм\. `},
	}
	for _, p := range parts {
		if answers.Has(p.field) {
			b.WriteString(p.prefix)
			b.WriteString(EscapeMarkdownV2(answers.Text(p.field)))
		}
	}
	return b.String()
}

// Mention renders the author as @username, or as an inline mention link
// when the user has no username.
func Mention(s domain.Sender) string {
	if s.Username != "" {
		return "@" + EscapeMarkdownV2(s.Username)
	}
	name := s.FirstName
	if name == "" {
		name = strconv.FormatInt(s.ID, 10)
	}
	return "[" + EscapeMarkdownV2(name) + "](tg://user?id=" + strconv.FormatInt(s.ID, 10) + ")"
}

// Link returns the public URL of a moderation channel message.
func (f *Formatter) Link(messageID int64) string {
	return strings.TrimRight(f.cfg.Groups.Main.PublicLink, "/") + "/" + strconv.FormatInt(messageID, 10)
}

// LinkMessage renders a MarkdownV2 template carrying {message_link}.
func (f *Formatter) LinkMessage(template string, messageID int64) string {
	return strings.ReplaceAll(f.cfg.Template(template), "{message_link}", EscapeMarkdownV2(f.Link(messageID)))
}

// Submission assembles the moderation channel post.
func (f *Formatter) Submission(answers domain.Answers, author domain.Sender, hash string) *domain.Submission {
	sub := &domain.Submission{
		AuthorID:    author.ID,
		ContentHash: hash,
		Text:        f.Report(answers, author),
	}
	if a, ok := answers.Get(domain.FieldMedia); ok && a.Media != nil {
		m := *a.Media
		sub.Media = &m
	}
	if a, ok := answers.Get(domain.FieldLocation); ok && a.Location != nil {
		l := *a.Location
		sub.Location = &l
	}
	return sub
}
