// Command bgrules plays and inspects backgammon games from the terminal.
package main

func main() {
	Execute()
}
