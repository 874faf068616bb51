package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matheus3301/chatr/internal/chat"
	"github.com/matheus3301/chatr/internal/groups"
)

var (
	groupName    string
	groupMembers []string
)

type memberJSON struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

func printMembers(members []groups.Member) error {
	if jsonOutput {
		out := make([]memberJSON, len(members))
		for i, m := range members {
			out[i] = memberJSON(m)
		}
		return outputJSON(out)
	}
	if len(members) == 0 {
		fmt.Println("No users.")
		return nil
	}
	for _, m := range members {
		line := fmt.Sprintf("%-38s %s", m.ID, m.Username)
		if m.Email != "" {
			line += " <" + m.Email + ">"
		}
		if m.Role != "" {
			line += " [" + m.Role + "]"
		}
		fmt.Println(line)
	}
	return nil
}

// ============================================================================
// users / dm
// ============================================================================

var usersCmd = &cobra.Command{
	Use:   "users <query>",
	Short: "Search users by name or email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, _ *cliEnv, s *chat.Session) error {
			found, err := s.SearchUsers(ctx, args[0])
			if err != nil {
				return err
			}
			return printMembers(found)
		})
	},
}

var dmCmd = &cobra.Command{
	Use:   "dm <userId>",
	Short: "Open (or create) a direct conversation with a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, _ *cliEnv, s *chat.Session) error {
			id, err := s.Groups.CreatePrivate(ctx, args[0])
			if err != nil {
				return err
			}
			return printCreated(id)
		})
	},
}

// ============================================================================
// group
// ============================================================================

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Group conversation commands",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, _ *cliEnv, s *chat.Session) error {
			id, err := s.Groups.CreateGroup(ctx, groupName, groupMembers)
			if err != nil {
				return err
			}
			return printCreated(id)
		})
	},
}

func printCreated(id string) error {
	if jsonOutput {
		return outputJSON(map[string]string{"id": id})
	}
	fmt.Printf("Conversation %s\n", id)
	return nil
}

// ============================================================================
// members
// ============================================================================

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Group roster commands",
}

var membersListCmd = &cobra.Command{
	Use:   "list <chat>",
	Short: "List the members of a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, _ *cliEnv, s *chat.Session) error {
			conv, err := resolveConversation(ctx, s, args[0])
			if err != nil {
				return err
			}
			members, err := s.Groups.Members(ctx, conv.ID)
			if err != nil {
				return err
			}
			return printMembers(members)
		})
	},
}

var membersAddCmd = &cobra.Command{
	Use:   "add <chat> <userId>",
	Short: "Add a user to a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, _ *cliEnv, s *chat.Session) error {
			conv, err := resolveConversation(ctx, s, args[0])
			if err != nil {
				return err
			}
			if !conv.IsGroup() {
				return fmt.Errorf("%s is not a group", conv.Name)
			}
			if err := s.Groups.AddMember(ctx, conv.ID, groups.Member{ID: args[1]}); err != nil {
				return err
			}
			fmt.Printf("Added %s to %s\n", args[1], conv.Name)
			return nil
		})
	},
}

var membersRemoveCmd = &cobra.Command{
	Use:   "remove <chat> <userId>",
	Short: "Remove a user from a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, _ *cliEnv, s *chat.Session) error {
			conv, err := resolveConversation(ctx, s, args[0])
			if err != nil {
				return err
			}
			if !conv.IsGroup() {
				return fmt.Errorf("%s is not a group", conv.Name)
			}
			if err := s.Groups.RemoveMember(ctx, conv.ID, args[1]); err != nil {
				return err
			}
			fmt.Printf("Removed %s from %s\n", args[1], conv.Name)
			return nil
		})
	},
}

func init() {
	groupCreateCmd.Flags().StringVar(&groupName, "name", "", "group name")
	groupCreateCmd.Flags().StringSliceVarP(&groupMembers, "member", "m", nil, "member user id (repeatable)")
	_ = groupCreateCmd.MarkFlagRequired("name")
	groupCmd.AddCommand(groupCreateCmd)

	membersCmd.AddCommand(membersListCmd, membersAddCmd, membersRemoveCmd)

	rootCmd.AddCommand(usersCmd, dmCmd, groupCmd, membersCmd)
}
