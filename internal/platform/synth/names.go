package synth

// Brazilian given names and surnames used by Source.Name.
var (
	givenNames = []string{
		"Ana", "Beatriz", "Bruna", "Camila", "Carolina", "Clara", "Daniela",
		"Eduarda", "Fernanda", "Gabriela", "Helena", "Isabela", "Juliana",
		"Larissa", "Letícia", "Luana", "Maria", "Mariana", "Natália", "Patrícia",
		"Rafaela", "Sofia", "Tatiane", "Valentina", "Vitória",
		"Alexandre", "André", "Antônio", "Arthur", "Bernardo", "Bruno", "Caio",
		"Carlos", "Daniel", "Davi", "Eduardo", "Felipe", "Gabriel", "Guilherme",
		"Gustavo", "Heitor", "João", "José", "Leonardo", "Lucas", "Luiz",
		"Marcelo", "Matheus", "Miguel", "Paulo", "Pedro", "Rafael", "Rodrigo",
		"Samuel", "Thiago", "Vinícius",
	}
	surnames = []string{
		"Almeida", "Alves", "Araújo", "Barbosa", "Barros", "Cardoso", "Carvalho",
		"Castro", "Correia", "Costa", "Dias", "Fernandes", "Ferreira", "Freitas",
		"Gomes", "Lima", "Lopes", "Martins", "Melo", "Mendes", "Monteiro",
		"Moreira", "Nascimento", "Nunes", "Oliveira", "Pereira", "Pinto",
		"Ribeiro", "Rocha", "Rodrigues", "Santos", "Silva", "Soares", "Sousa",
		"Teixeira", "Vieira",
	}
)
