package util

import "testing"

func TestBrowserCommands(t *testing.T) {
	t.Parallel()

	const url = "http://localhost:20270"

	linux := browserCommands("linux", url)
	if len(linux) < 2 || linux[0][0] != "xdg-open" {
		t.Fatalf("linux commands = %v, want xdg-open first with fallbacks", linux)
	}

	windows := browserCommands("windows", url)
	if len(windows) != 2 || windows[0][0] != "rundll32" || windows[1][0] != "explorer" {
		t.Fatalf("windows commands = %v", windows)
	}

	darwin := browserCommands("darwin", url)
	if len(darwin) != 1 || darwin[0][0] != "open" {
		t.Fatalf("darwin commands = %v", darwin)
	}

	for _, cmds := range [][][]string{linux, windows, darwin} {
		for _, args := range cmds {
			if args[len(args)-1] != url {
				t.Fatalf("command %v does not end with the url", args)
			}
		}
	}
}
