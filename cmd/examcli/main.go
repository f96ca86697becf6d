package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/examportal/backend/internal/client"
	"github.com/examportal/backend/internal/model"
	"github.com/examportal/backend/internal/session"
)

var optionLabels = [4]string{"A", "B", "C", "D"}

func main() {
	baseURL := flag.String("server", "http://localhost:4000", "exam portal base URL")
	register := flag.Bool("register", false, "create a new account instead of logging in")
	flag.Parse()

	api := client.New(*baseURL)
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	if err := authenticate(ctx, api, reader, *register); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	exam, err := chooseExam(ctx, api, reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if exam == nil {
		return
	}

	if err := takeExam(ctx, api, reader, exam.ID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func authenticate(ctx context.Context, api *client.Client, reader *bufio.Reader, register bool) error {
	var name string
	if register {
		fmt.Print("Name: ")
		line, _ := reader.ReadString('\n')
		name = strings.TrimSpace(line)
	}

	fmt.Print("Email: ")
	line, _ := reader.ReadString('\n')
	email := strings.TrimSpace(line)

	fmt.Print("Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	fmt.Println()
	password := string(bytePassword)

	var auth *model.AuthResponse
	if register {
		auth, err = api.Register(ctx, name, email, password)
	} else {
		auth, err = api.Login(ctx, email, password)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Welcome, %s.\n\n", auth.User.Name)
	return nil
}

func chooseExam(ctx context.Context, api *client.Client, reader *bufio.Reader) (*model.ExamListing, error) {
	listings, err := api.ListExams(ctx)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		fmt.Println("No exams available.")
		return nil, nil
	}

	fmt.Println("Available exams:")
	for i, l := range listings {
		status := string(l.Status)
		if l.Score != nil {
			status = fmt.Sprintf("completed (%d%%)", *l.Score)
		}
		fmt.Printf("  %d. %s — %s, %d min, %d questions [%s]\n",
			i+1, l.Title, l.Subject, l.DurationMinutes, l.QuestionCount, status)
	}

	for {
		fmt.Print("Pick an exam (number, or q to quit): ")
		line, _ := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "q" {
			return nil, nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(listings) {
			fmt.Println("Invalid choice.")
			continue
		}
		return &listings[n-1], nil
	}
}

func takeExam(ctx context.Context, api *client.Client, reader *bufio.Reader, examID int64) error {
	eng := session.New(examID, api, nil)
	defer eng.Close()

	paper, err := api.FetchExamPaper(ctx, examID)
	if err != nil {
		eng.FailLoad(err)
		return err
	}
	if err := eng.Load(paper); err != nil {
		return err
	}

	fmt.Printf("\n=== %s ===\n", paper.Exam.Title)
	fmt.Printf("%d questions, %d minutes. Commands: a-d answer, n/p move, g N goto, f flag, s status, submit, help.\n\n",
		len(paper.Questions), paper.Exam.DurationMinutes)

	for {
		snap := eng.Snapshot()
		switch snap.State {
		case session.StateCompleted:
			printResult(snap.Result)
			return nil
		case session.StateErrored:
			return snap.Err
		case session.StateSubmitting:
			// Auto-submit fired from the clock; wait for it to settle.
			time.Sleep(200 * time.Millisecond)
			continue
		}

		printQuestion(eng, snap)
		fmt.Printf("[%s left] > ", formatClock(snap.Remaining))
		line, readErr := reader.ReadString('\n')
		if readErr != nil {
			return readErr
		}
		cmd := strings.TrimSpace(strings.ToLower(line))

		// The clock may have expired while waiting for input.
		if eng.Snapshot().State != session.StateInProgress {
			continue
		}

		if err := dispatch(ctx, eng, reader, cmd); err != nil {
			fmt.Printf("  %v\n", err)
		}
	}
}

func dispatch(ctx context.Context, eng *session.Engine, reader *bufio.Reader, cmd string) error {
	snap := eng.Snapshot()
	switch {
	case cmd == "a" || cmd == "b" || cmd == "c" || cmd == "d":
		return eng.SelectAnswer(snap.Current, int(cmd[0]-'a'))
	case cmd == "n":
		return eng.Advance(1)
	case cmd == "p":
		return eng.Advance(-1)
	case strings.HasPrefix(cmd, "g "):
		n, err := strconv.Atoi(strings.TrimSpace(cmd[2:]))
		if err != nil {
			return errors.New("usage: g <question number>")
		}
		return eng.Navigate(n - 1)
	case cmd == "f":
		return eng.ToggleFlag(snap.Current)
	case cmd == "s":
		printStatus(eng, snap)
		return nil
	case cmd == "submit":
		return confirmAndSubmit(ctx, eng, reader)
	case cmd == "help":
		fmt.Println("  a-d answer | n next | p prev | g N goto | f flag | s status | submit")
		return nil
	case cmd == "":
		return nil
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func confirmAndSubmit(ctx context.Context, eng *session.Engine, reader *bufio.Reader) error {
	fmt.Printf("You have answered %d of %d questions. Submit? (y/N) ", eng.AnsweredCount(), eng.Len())
	line, _ := reader.ReadString('\n')
	if strings.TrimSpace(strings.ToLower(line)) != "y" {
		fmt.Println("  Submission cancelled.")
		return nil
	}

	if _, err := eng.Submit(ctx); err != nil {
		return fmt.Errorf("submission failed, your answers are intact: %w", err)
	}
	return nil
}

func printQuestion(eng *session.Engine, snap session.Snapshot) {
	q, ok := eng.Question(snap.Current)
	if !ok {
		return
	}

	marker := ""
	for _, f := range snap.Flagged {
		if f == snap.Current {
			marker = " [flagged]"
		}
	}
	fmt.Printf("\nQuestion %d/%d%s\n%s\n", snap.Current+1, eng.Len(), marker, q.Question)
	for i, opt := range q.Options {
		sel := " "
		if chosen, ok := snap.Answers[snap.Current]; ok && chosen == i {
			sel = "*"
		}
		fmt.Printf("  %s %s) %s\n", sel, optionLabels[i], opt)
	}
}

func printStatus(eng *session.Engine, snap session.Snapshot) {
	fmt.Printf("  Answered %d of %d. Time left: %s.\n", eng.AnsweredCount(), eng.Len(), formatClock(snap.Remaining))
	if len(snap.Flagged) > 0 {
		parts := make([]string, len(snap.Flagged))
		for i, f := range snap.Flagged {
			parts[i] = strconv.Itoa(f + 1)
		}
		fmt.Printf("  Flagged: %s\n", strings.Join(parts, ", "))
	}
}

func printResult(result *model.SubmissionResult) {
	fmt.Println("\n=== Exam submitted ===")
	if result != nil {
		fmt.Printf("Score: %d/%d (%d%%)\n", result.Score, result.Total, result.Percentage)
	}
}

func formatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
