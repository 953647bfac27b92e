package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/pkg"

	log "github.com/sirupsen/logrus"
)

// adds (or replaces) a user in the users config file; the password is read from stdin

func main() {
	usersFile := flag.String("file", "users.toml", "users config file path, created if missing")
	username := flag.String("user", "", "username to add")
	flag.Parse()

	if strings.TrimSpace(*username) == "" {
		log.Fatalln("user must be set")
	}

	fmt.Fprint(os.Stderr, "password: ")
	password, err := readPassword(os.Stdin)
	if err != nil {
		log.Fatalf("read password: %s", err)
	}

	if err := addUser(*usersFile, strings.TrimSpace(*username), password); err != nil {
		log.Fatalf("add user: %s", err)
	}
	log.Infof("user [%s] saved to %s", *username, *usersFile)
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("empty password")
	}
	return password, nil
}

func addUser(path, username, password string) error {
	usersConfig := auth.NewUsersConfig()
	exists, err := pkg.PathExists(path, false)
	if err != nil {
		return err
	}
	if exists {
		if usersConfig, err = auth.LoadUsersConfig(path); err != nil {
			return err
		}
	}

	passwordHash, err := pkg.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	usersConfig.AddUser(username, passwordHash)

	return usersConfig.Save(path)
}
