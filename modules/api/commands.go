package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/task-reminder-bot/modules/chat"
	"github.com/example/task-reminder-bot/modules/task"
)

const helpText = `Here's what I can do:
* /add <description> [| <due date>] - Add a task, e.g. /add Pay rent | tomorrow 9am
* /list - Show pending tasks with Done/Delete buttons.
* /done <id> - Mark a task as done.
* /delete <id> - Delete a task.
* /set_timezone <Area/City> - Set your timezone. List: https://en.wikipedia.org/wiki/List_of_tz_database_time_zones
* /my_timezone - Show your current timezone setting.
* /help - Show this message.`

// Command is a parsed slash command.
type Command struct {
	Name string
	Args string
}

// ParseCommand splits "/name@bot args" into its parts. ok is false for
// text that is not a command.
func ParseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}
	head, args, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(head), Args: strings.TrimSpace(args)}, true
}

// commandRouter turns chat commands into task service calls.
type commandRouter struct {
	tasks task.TaskPort
}

// Handle runs one inbound chat text and returns the replies to send.
// An error means the task service could not be reached.
func (r *commandRouter) Handle(ctx context.Context, ownerID, conversationID, text string) ([]Outgoing, error) {
	cmd, ok := ParseCommand(text)
	if !ok {
		return say("I work with commands here. Use /help to see them."), nil
	}

	switch cmd.Name {
	case "start":
		return say("Hi! Use /help or /add to create your first task."), nil
	case "help":
		return say(helpText), nil
	case "add":
		description, due, _ := strings.Cut(cmd.Args, "|")
		reply, err := r.tasks.AddTask(ctx, &task.AddTaskRequest{
			OwnerID:        ownerID,
			ConversationID: conversationID,
			Description:    strings.TrimSpace(description),
			DueDate:        strings.TrimSpace(due),
		})
		if err != nil {
			return nil, err
		}
		return say(reply.Text), nil
	case "list":
		return r.list(ctx, ownerID)
	case "done", "delete":
		id, err := strconv.ParseUint(cmd.Args, 10, 64)
		if err != nil || id == 0 {
			return say(fmt.Sprintf("Usage: /%s <id>", cmd.Name)), nil
		}
		var reply *task.Reply
		if cmd.Name == "done" {
			reply, err = r.tasks.CompleteTask(ctx, ownerID, uint(id))
		} else {
			reply, err = r.tasks.DeleteTask(ctx, ownerID, uint(id))
		}
		if err != nil {
			return nil, err
		}
		return say(reply.Text), nil
	case "set_timezone":
		reply, err := r.tasks.SetTimezone(ctx, ownerID, cmd.Args)
		if err != nil {
			return nil, err
		}
		return say(reply.Text), nil
	case "my_timezone":
		reply, err := r.tasks.ShowTimezone(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return say(reply.Text), nil
	default:
		return say(fmt.Sprintf("Unknown command /%s. Use /help to see what I can do.", cmd.Name)), nil
	}
}

func (r *commandRouter) list(ctx context.Context, ownerID string) ([]Outgoing, error) {
	reply, err := r.tasks.TaskCards(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]Outgoing, 0, len(reply.Cards)+2)
	out = append(out, Outgoing{Text: reply.Header})
	for _, card := range reply.Cards {
		out = append(out, Outgoing{Text: card.Text, Keyboard: chat.TaskKeyboard(card.TaskID)})
	}
	if reply.Note != "" {
		out = append(out, Outgoing{Text: reply.Note})
	}
	return out, nil
}

// buttonKeyboard keeps the task buttons on a message whose action failed.
func buttonKeyboard(reply *task.ButtonReply) chat.Keyboard {
	if reply.KeepButtons && reply.TaskID != 0 {
		return chat.TaskKeyboard(reply.TaskID)
	}
	return nil
}

func say(text string) []Outgoing {
	return []Outgoing{{Text: text}}
}
