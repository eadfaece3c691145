package terminal

func init() {
	// --wait keeps the client attached until the window's shell exits.
	Register("gnome-terminal", "gnome-terminal", func(title, dir, script string) []string {
		args := []string{"--wait", "--title=" + title}
		if dir != "" {
			args = append(args, "--working-directory="+dir)
		}
		return append(args, "--", "bash", "-c", script)
	})
	Register("kitty", "kitty", func(title, dir, script string) []string {
		args := []string{"--title", title}
		if dir != "" {
			args = append(args, "--directory", dir)
		}
		return append(args, "bash", "-c", script)
	})
	Register("ghostty", "ghostty", func(title, dir, script string) []string {
		args := []string{"--title=" + title}
		if dir != "" {
			args = append(args, "--working-directory="+dir)
		}
		return append(args, "-e", "bash", "-c", script)
	})
	Register("konsole", "konsole", func(title, dir, script string) []string {
		args := []string{"-p", "tabtitle=" + title}
		if dir != "" {
			args = append(args, "--workdir", dir)
		}
		return append(args, "-e", "bash", "-c", script)
	})
	Register("xterm", "xterm", xtermArgs)
	Register("x-terminal-emulator", "x-terminal-emulator", xtermArgs)
}

// xtermArgs relies on the process working directory for dir.
func xtermArgs(title, _, script string) []string {
	return []string{"-T", title, "-e", "bash", "-c", script}
}
