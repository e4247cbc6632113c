package bot

import "strings"

// Command describes one chat command for help rendering and matching.
type Command struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
	AdminOnly   bool
	TakesArg    bool
}

// commandList is the full surface in help order. Dispatch order lives in the
// router; this list only feeds the help text and usage replies.
var commandList = []Command{
	{Name: "!contas", Description: "Ver contas disponíveis"},
	{Name: "!comprar", Usage: "!comprar [ID]", Description: "Comprar uma conta", TakesArg: true},
	{Name: "!ajuda", Aliases: []string{"!help"}, Description: "Ver este menu"},
	{Name: "!addconta", Description: "Adicionar nova conta", AdminOnly: true},
	{Name: "!addimagem", Usage: "!addimagem [ID]", Description: "Adicionar imagem a uma conta", AdminOnly: true, TakesArg: true},
	{Name: "!removerconta", Usage: "!removerconta [ID]", Description: "Remover conta", AdminOnly: true, TakesArg: true},
	{Name: "!listarcontas", Description: "Ver todas (com dados)", AdminOnly: true},
	{Name: "!confirmar", Usage: "!confirmar [Payment ID]", Description: "Confirmar pagamento e liberar dados", AdminOnly: true, TakesArg: true},
	{Name: "!broadcast", Description: "Enviar mídia para compradores", AdminOnly: true},
}

// matches reports whether the lowered message body invokes the command:
// exact match for plain commands, "name" or "name ..." for arg commands.
func (c Command) matches(lower string) bool {
	names := append([]string{c.Name}, c.Aliases...)
	for _, n := range names {
		if lower == n {
			return true
		}
		if c.TakesArg && strings.HasPrefix(lower, n+" ") {
			return true
		}
		// bare prefix without argument still reaches the handler so it can
		// reply with usage, matching the original prefix matching
		if c.TakesArg && strings.HasPrefix(lower, n) {
			return true
		}
	}
	return false
}

// commandArg returns the first token after the command name, or "".
func commandArg(body string) string {
	parts := strings.Fields(body)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func lookupCommand(name string) (Command, bool) {
	for _, c := range commandList {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}
