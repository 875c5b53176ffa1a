package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pixivarc/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the pixiv session",
	Long: `Manage the stored pixiv session securely.

The session is stored using:
  - System keychain (when available)
  - Environment variable (PIXIVARC_SESSION, as a fallback)

Never share your session cookie or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the pixiv session securely",
	Long: `Store the pixiv session cookie securely in the system keychain.

You will be prompted for:
  - PHPSESSID (from the pixiv.net cookie of the same name)
  - User Agent (optional, press Enter for default)

To get the cookie value:
1. Log into pixiv in your browser
2. Open Developer Tools (F12)
3. Go to Application/Storage > Cookies > https://www.pixiv.net
4. Find and copy the PHPSESSID value`,
	Example: `  pixivarc auth login`,
	Args:    cobra.NoArgs,
	Run:     runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:     "logout",
	Short:   "Remove the stored session",
	Long:    `Remove the stored pixiv session from every storage backend that holds it.`,
	Example: `  pixivarc auth logout`,
	Args:    cobra.NoArgs,
	Run:     runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a session is stored",
	Long:  `Show whether a pixiv session is currently stored and where it came from.`,
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize session manager:", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	if manager.Exists() {
		fmt.Print("A session is already stored. Replace it? (y/N): ")
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Println("Enter your cookie value (it will be hidden as you type):")
	fmt.Println()

	var cookie string
	for {
		fmt.Print("PHPSESSID cookie value: ")
		cookie, err = readPassword()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to read session cookie:", err)
			os.Exit(1)
		}

		// The cookie is "<user id>_<token>"
		if len(cookie) < 10 || !strings.Contains(cookie, "_") {
			fmt.Println("\nThat doesn't look like a valid PHPSESSID.")
			fmt.Println("It should look like: 12345678_AbCdEfGhIjKlMnOpQrStUvWx")
			fmt.Print("\nTry again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				os.Exit(1)
			}
			continue
		}
		break
	}

	fmt.Print("\nUser Agent (press Enter to use default): ")
	userAgent, _ := reader.ReadString('\n')
	userAgent = strings.TrimSpace(userAgent)

	session := &auth.Session{
		Cookie:    cookie,
		UserAgent: userAgent,
	}

	if err := manager.Store(session); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to store session:", err)
		os.Exit(1)
	}

	fmt.Println("\nSession stored successfully.")
	fmt.Println("\nQuick start:")
	fmt.Println("  pixivarc archive --illust <id>")
	fmt.Println("  pixivarc archive --user <id>")
	fmt.Println("  pixivarc archive --favorites")
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize session manager:", err)
		os.Exit(1)
	}

	if err := manager.Delete(); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to remove session:", err)
		os.Exit(1)
	}
	fmt.Println("Session removed.")
}

func runStatus(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize session manager:", err)
		os.Exit(1)
	}

	if !manager.Exists() {
		fmt.Println("No session stored. Run 'pixivarc auth login' to store one.")
		return
	}

	session, err := manager.Retrieve()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to read session:", err)
		os.Exit(1)
	}

	fmt.Println("Session stored.")
	if !session.LastModified.IsZero() {
		fmt.Printf("  last modified: %s\n", session.LastModified.Format("2006-01-02 15:04:05"))
	}
	if session.UserAgent != "" {
		fmt.Printf("  user agent:    %s\n", session.UserAgent)
	}
}

// readPassword reads a value from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		value, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(value)), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
