package main

import "github.com/rafaelpirescs/X-Web-Scraping/cmd"

func main() {
	cmd.Execute()
}
