package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/bountyhunter/internal/common"
	"github.com/dmitrijs2005/bountyhunter/internal/countdown"
	"github.com/dmitrijs2005/bountyhunter/internal/filex"
)

// MaxAvatarSize bounds the image file accepted by the avatar command.
const MaxAvatarSize = 1 << 20

// getSimpleText and getPassword are indirections for tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// describe turns service errors into the messages shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrAuthFailure):
		return "Invalid credentials."
	case errors.Is(err, common.ErrNotLoggedIn):
		return "You are not logged in."
	case errors.Is(err, common.ErrExpired):
		return "Time has expired! Key submission no longer available."
	case errors.Is(err, common.ErrInvalidKey):
		return "Please enter a valid key (minimum 5 characters)."
	case errors.Is(err, common.ErrAlreadyRedeemed):
		return "A key has already been redeemed for this account."
	case errors.Is(err, common.ErrInvalidDisplayName):
		return "Display name must not be empty."
	default:
		return err.Error()
	}
}

// Login prompts for username, id and secret and starts a session. A
// session that is already active is replaced.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	externalID, err := getSimpleText(a.reader, "Enter ID", a.out)
	if err != nil {
		return err
	}

	secret, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	id, err := a.session.Login(ctx, username, externalID, secret)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s.\n", id.Username)
	return a.Status(ctx)
}

func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrNotLoggedIn
	}
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// Status prints the dashboard: points, level, averages and the timer.
func (a *App) Status(ctx context.Context) error {
	snap, err := a.session.Snapshot()
	if err != nil {
		return err
	}

	s := snap.Stats
	fmt.Fprintf(a.out, "%s (Level %d)\n", s.DisplayName, s.Level)
	fmt.Fprintf(a.out, "  Completed bounties: %d\n", s.CompletedCount)
	fmt.Fprintf(a.out, "  Current points:     %d\n", s.CurrentPoints)
	fmt.Fprintf(a.out, "  Lifetime points:    %d\n", s.LifetimePoints)
	fmt.Fprintf(a.out, "  Points this month:  %d\n", s.PointsThisMonth)
	fmt.Fprintf(a.out, "  Average per bounty: %d\n", s.AveragePerTask)
	if snap.Record.AvatarRef != "" {
		fmt.Fprintln(a.out, "  Avatar:             set")
	}
	fmt.Fprintf(a.out, "  Time remaining:     %s\n", countdown.Format(snap.Remaining))

	if snap.Record.RewardUnlocked {
		fmt.Fprintln(a.out, "  Reward:             unlocked")
	}
	return nil
}

func (a *App) Submit(ctx context.Context, key string) error {
	res, err := a.session.SubmitKey(ctx, key)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Key accepted! You've earned %d points. Reward link: %s\n", res.PointsAwarded, res.RewardRef)
	return nil
}

func (a *App) Name(ctx context.Context, name string) error {
	if err := a.session.UpdateDisplayName(ctx, name); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Display name updated.")
	return nil
}

// Avatar sets the avatar to a data URL built from the image at path.
// The path "-" removes the avatar.
func (a *App) Avatar(ctx context.Context, path string) error {
	if path == "-" {
		if err := a.session.UpdateAvatar(ctx, ""); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Avatar removed.")
		return nil
	}

	if !a.isLoggedIn() {
		return common.ErrNotLoggedIn
	}

	data, err := filex.ReadLimited(path, MaxAvatarSize)
	if err != nil {
		return err
	}

	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return fmt.Errorf("%s is not an image (%s)", path, mime)
	}

	ref := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	if err := a.session.UpdateAvatar(ctx, ref); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Avatar updated.")
	return nil
}

func (a *App) History(ctx context.Context) error {
	entries, err := a.session.History(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No redemptions yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "%s  %-20s +%d\n", e.RedeemedAt.Local().Format("2006-01-02 15:04:05"), e.RewardKey, e.Points)
	}
	return nil
}
