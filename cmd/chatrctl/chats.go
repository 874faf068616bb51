package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheus3301/chatr/internal/chat"
	"github.com/matheus3301/chatr/internal/store"
)

var (
	chatsUnread bool

	messagesLimit int

	sendText string
	sendGIF  string
	sendFile string
)

type conversationJSON struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Unread int    `json:"unread"`
	Online *bool  `json:"online,omitempty"`
}

type messageJSON struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text,omitempty"`
	GIFURL     string    `json:"gifUrl,omitempty"`
	File       string    `json:"file,omitempty"`
	FileID     string    `json:"fileId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	Mine       bool      `json:"mine"`
	Status     string    `json:"status"`
}

func toConversationJSON(c store.Conversation) conversationJSON {
	return conversationJSON{ID: c.ID, Name: c.Name, Kind: c.Kind.String(), Unread: c.Unread, Online: c.Online}
}

func toMessageJSON(m store.Message) messageJSON {
	out := messageJSON{
		ID:         m.ID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Text:       m.Content.Text(),
		GIFURL:     m.Content.GIFURL(),
		CreatedAt:  m.CreatedAt,
		Mine:       m.IsMine,
		Status:     string(m.Status),
	}
	if att, ok := m.Content.Attachment(); ok {
		out.File = att.FileName
		out.FileID = att.ID
	}
	return out
}

// ============================================================================
// chats
// ============================================================================

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "List conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, _ *cliEnv, s *chat.Session) error {
			convs, err := s.LoadConversations(ctx)
			if err != nil {
				return err
			}
			if chatsUnread {
				filtered := convs[:0]
				for _, c := range convs {
					if c.Unread > 0 {
						filtered = append(filtered, c)
					}
				}
				convs = filtered
			}
			if jsonOutput {
				out := make([]conversationJSON, len(convs))
				for i, c := range convs {
					out[i] = toConversationJSON(c)
				}
				return outputJSON(out)
			}
			if len(convs) == 0 {
				fmt.Println("No conversations.")
				return nil
			}
			fmt.Printf("%-38s %-6s %6s  %s\n", "ID", "KIND", "UNREAD", "NAME")
			for _, c := range convs {
				fmt.Printf("%-38s %-6s %6d  %s\n", c.ID, c.Kind, c.Unread, c.Name)
			}
			return nil
		})
	},
}

// ============================================================================
// messages
// ============================================================================

var messagesCmd = &cobra.Command{
	Use:   "messages <chat>",
	Short: "Show the messages of a conversation and mark it read",
	Long:  "Show the messages of a conversation. <chat> is an id or a (prefix of a) conversation name.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, _ *cliEnv, s *chat.Session) error {
			conv, err := resolveConversation(ctx, s, args[0])
			if err != nil {
				return err
			}
			msgs, err := s.OpenConversation(ctx, conv.ID)
			if err != nil {
				return err
			}
			if messagesLimit > 0 && len(msgs) > messagesLimit {
				msgs = msgs[len(msgs)-messagesLimit:]
			}
			if jsonOutput {
				out := make([]messageJSON, len(msgs))
				for i, m := range msgs {
					out[i] = toMessageJSON(m)
				}
				return outputJSON(out)
			}
			fmt.Printf("%s (%s)\n\n", conv.Name, conv.Kind)
			if len(msgs) == 0 {
				fmt.Println("No messages.")
				return nil
			}
			for _, m := range msgs {
				fmt.Println(formatMessage(m))
			}
			return nil
		})
	},
}

func formatMessage(m store.Message) string {
	who := m.SenderName
	if m.IsMine {
		who = "you"
	}
	ts := "--:--"
	if !m.CreatedAt.IsZero() {
		ts = m.CreatedAt.Local().Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("[%s] %s: %s", ts, who, m.Content.Summary())
}

// ============================================================================
// send
// ============================================================================

var sendCmd = &cobra.Command{
	Use:   "send <chat>",
	Short: "Send a message and wait for the server to confirm it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := chat.Input{Text: sendText, GIFURL: sendGIF, FilePath: sendFile}
		if in.IsEmpty() {
			return fmt.Errorf("nothing to send; pass --text, --gif or --file")
		}
		return withSession(cmd, func(ctx context.Context, _ *cliEnv, s *chat.Session) error {
			conv, err := resolveConversation(ctx, s, args[0])
			if err != nil {
				return err
			}
			msg, err := s.Send(ctx, conv.ID, in)
			if err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(toMessageJSON(msg))
			}
			fmt.Printf("Sent to %s (id %s)\n", conv.Name, msg.ID)
			return nil
		})
	},
}

func init() {
	chatsCmd.Flags().BoolVar(&chatsUnread, "unread", false, "only conversations with unread messages")

	messagesCmd.Flags().IntVarP(&messagesLimit, "limit", "n", 0, "show at most the last n messages")

	sendCmd.Flags().StringVarP(&sendText, "text", "t", "", "message text (caption when sent with --gif or --file)")
	sendCmd.Flags().StringVar(&sendGIF, "gif", "", "GIF URL")
	sendCmd.Flags().StringVarP(&sendFile, "file", "f", "", "path of a file to attach")

	rootCmd.AddCommand(chatsCmd, messagesCmd, sendCmd)
}
