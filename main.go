/*
Copyright © 2024 Dean
*/
package main

import "evalviewer/cmd"

func main() {
	cmd.Execute()
}
